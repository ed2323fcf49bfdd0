package memerr

import "errors"

// messageKind はユーザーに見せる文言の種別です。内部の細かい失敗は
// この小さな固定集合のどれかに必ず畳み込まれます。
type messageKind int

const (
	kindGeneric messageKind = iota
	kindRateLimited
	kindNoKey
	kindInvalidKey
	kindNetwork
)

// maxRawMessageLen はそのまま表示してよい生エラーメッセージの長さ上限です。
const maxRawMessageLen = 80

// userMessages はロケール別の文言テーブルです。未対応ロケールは英語に倒します。
var userMessages = map[string]map[messageKind]string{
	"en": {
		kindGeneric:     "Something went wrong while generating the meme. Please try again.",
		kindRateLimited: "Too many requests right now. Please wait a moment and try again.",
		kindNoKey:       "No API key is configured. Please add your Gemini API key first.",
		kindInvalidKey:  "The configured API key looks invalid. Please check it.",
		kindNetwork:     "Network error. Please check your connection and try again.",
	},
	"es": {
		kindGeneric:     "Algo salió mal al generar el meme. Inténtalo de nuevo.",
		kindRateLimited: "Demasiadas solicitudes. Espera un momento e inténtalo de nuevo.",
		kindNoKey:       "No hay una clave de API configurada. Añade tu clave de Gemini.",
		kindInvalidKey:  "La clave de API configurada no parece válida. Compruébala.",
		kindNetwork:     "Error de red. Comprueba tu conexión e inténtalo de nuevo.",
	},
	"fr": {
		kindGeneric:     "Une erreur est survenue pendant la génération du mème. Réessayez.",
		kindRateLimited: "Trop de requêtes pour le moment. Patientez un instant puis réessayez.",
		kindNoKey:       "Aucune clé API configurée. Ajoutez d'abord votre clé Gemini.",
		kindInvalidKey:  "La clé API configurée semble invalide. Vérifiez-la.",
		kindNetwork:     "Erreur réseau. Vérifiez votre connexion puis réessayez.",
	},
	"de": {
		kindGeneric:     "Beim Erstellen des Memes ist etwas schiefgelaufen. Bitte erneut versuchen.",
		kindRateLimited: "Zu viele Anfragen. Bitte kurz warten und erneut versuchen.",
		kindNoKey:       "Kein API-Schlüssel konfiguriert. Bitte zuerst den Gemini-Schlüssel hinterlegen.",
		kindInvalidKey:  "Der konfigurierte API-Schlüssel scheint ungültig zu sein. Bitte prüfen.",
		kindNetwork:     "Netzwerkfehler. Bitte Verbindung prüfen und erneut versuchen.",
	},
}

// UserMessage は err をエンドユーザー向けのローカライズ済み文言に解決します。
// 分類済みの種別は固定文言へ、未知のエラーは短ければ生メッセージを、
// 長すぎれば汎用文言を返します。
func UserMessage(err error, lang string) string {
	table, ok := userMessages[lang]
	if !ok {
		table = userMessages["en"]
	}

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return table[kindRateLimited]
	case errors.Is(err, ErrNoAPIKey):
		return table[kindNoKey]
	case errors.Is(err, ErrInvalidAPIKey):
		return table[kindInvalidKey]
	case errors.Is(err, ErrInvalidResponse),
		errors.Is(err, ErrFormattingFailed),
		errors.Is(err, ErrClassificationFailed),
		errors.Is(err, ErrTemplateUnavailable):
		return table[kindGeneric]
	}

	if msg := err.Error(); len(msg) <= maxRawMessageLen {
		return msg
	}
	return table[kindGeneric]
}
