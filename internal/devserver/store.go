package devserver

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/braillesync/pkg/migration"
	"github.com/nao1215/braillesync/pkg/model"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// errNotFound は対象の行が存在しないことを表す。
	errNotFound = errors.New("not found")
	// errEmailTaken はメールアドレスが既に登録済みであることを表す。
	errEmailTaken = errors.New("email already registered")
)

// store はユーザーと翻訳履歴のSQLiteリポジトリ。
type store struct {
	db *sql.DB
}

// newStore はマイグレーションを適用してstoreを返す。
func newStore(ctx context.Context, db *sql.DB) (*store, error) {
	if _, err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &store{db: db}, nil
}

const userColumns = `id, email, name, default_language, default_braille_grade,
	enable_summarization, enable_high_contrast, created_at`

// scanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, extra ...any) (model.User, error) {
	var u model.User
	dest := append([]any{
		&u.ID, &u.Email, &u.Name, &u.DefaultLanguage, &u.DefaultBrailleGrade,
		&u.EnableSummarization, &u.EnableHighContrast, &u.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errNotFound
		}
		return model.User{}, err
	}
	return u, nil
}

// createUser はユーザーを作成する。メールアドレスが重複する場合はerrEmailTakenを返す。
func (s *store) createUser(ctx context.Context, u model.User, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, default_language, default_braille_grade,
			enable_summarization, enable_high_contrast, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, passwordHash, u.DefaultLanguage, u.DefaultBrailleGrade,
		u.EnableSummarization, u.EnableHighContrast, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return errEmailTaken
	}
	return err
}

// userByEmail はメールアドレスでユーザーとパスワードハッシュを取得する。
func (s *store) userByEmail(ctx context.Context, email string) (model.User, string, error) {
	var hash string
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password_hash FROM users WHERE email = ?`, email)
	u, err := scanUser(row, &hash)
	return u, hash, err
}

// userByID はIDでユーザーを取得する。
func (s *store) userByID(ctx context.Context, id string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// updateUser はプロフィール項目を上書きする。
func (s *store) updateUser(ctx context.Context, u model.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET email = ?, name = ?, default_language = ?, default_braille_grade = ?,
			enable_summarization = ?, enable_high_contrast = ?
		WHERE id = ?`,
		u.Email, u.Name, u.DefaultLanguage, u.DefaultBrailleGrade,
		u.EnableSummarization, u.EnableHighContrast, u.ID,
	)
	if isUniqueViolation(err) {
		return errEmailTaken
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNotFound
	}
	return nil
}

const translationColumns = `id, user_id, input_type, input_text, output_braille, summary,
	language, braille_grade, created_at`

func scanTranslation(row scanner) (model.Translation, error) {
	var t model.Translation
	err := row.Scan(&t.ID, &t.UserID, &t.InputType, &t.InputText, &t.OutputBraille, &t.Summary,
		&t.Language, &t.BrailleGrade, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Translation{}, errNotFound
	}
	return t, err
}

// createTranslation は翻訳履歴を1件追加する。
func (s *store) createTranslation(ctx context.Context, t model.Translation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translations (`+translationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.InputType, t.InputText, t.OutputBraille, t.Summary,
		t.Language, t.BrailleGrade, t.CreatedAt,
	)
	return err
}

// listTranslations はユーザーの翻訳履歴を新しい順に返す。
// 日付の絞り込みはcreated_atの日付部分（YYYY-MM-DD）で両端を含めて比較する。
func (s *store) listTranslations(ctx context.Context, userID string, f model.HistoryFilter) ([]model.Translation, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if f.Type != "" {
		where = append(where, "input_type = ?")
		args = append(args, f.Type)
	}
	if f.DateFrom != "" {
		where = append(where, "substr(created_at, 1, 10) >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		where = append(where, "substr(created_at, 1, 10) <= ?")
		args = append(args, f.DateTo)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+translationColumns+` FROM translations WHERE `+strings.Join(where, " AND ")+
			` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Translation{}
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// translationByID はユーザーの翻訳履歴を1件返す。他人の履歴はerrNotFoundになる。
func (s *store) translationByID(ctx context.Context, userID, id string) (model.Translation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+translationColumns+` FROM translations WHERE id = ? AND user_id = ?`, id, userID)
	return scanTranslation(row)
}

// isUniqueViolation はerrがUNIQUE制約違反であればtrueを返す。
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
