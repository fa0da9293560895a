package respond

import (
	"regexp"
)

var (
	// より具体的なパターンから順に適用する
	anthropicKeyPattern  = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openRouterKeyPattern = regexp.MustCompile(`sk-or-[a-zA-Z0-9-_]+`)
	// 既にマスクされた文字列（*を含む）にはマッチしない
	openaiKeyPattern = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)

	// AWS アクセスキー ID
	awsKeyPattern = regexp.MustCompile(`\b(AKIA|ASIA)[A-Z0-9]{16}\b`)

	// JWT（header.payload.signature）
	jwtPattern = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// DSN 内のパスワード（postgres://user:pw@, redis://:pw@）
	dsnPasswordPattern = regexp.MustCompile(`://([^:/@]*):([^@]+)@`)
)

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openRouterKeyPattern.ReplaceAllString(msg, "sk-or-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = awsKeyPattern.ReplaceAllString(msg, "${1}****")
	msg = jwtPattern.ReplaceAllString(msg, "[token]")
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
