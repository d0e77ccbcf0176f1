// Package auth はセッションのライフサイクル（初期化・ログイン・登録・ログアウト）を提供する。
//
// httpclient.Clientとsession.Store / session.Slotを束ね、トークンの永続化と
// 401受信時の強制ログアウトを担当する。画面遷移はNavigatorに委ねる。
package auth
