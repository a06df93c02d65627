package orchestrator

import (
	"errors"

	"github.com/appforge-labs/appforge/internal/codec"
	"github.com/appforge-labs/appforge/internal/domain"
	"github.com/appforge-labs/appforge/internal/encode"
	"github.com/appforge-labs/appforge/internal/genai"
)

// FailureNotice renders a locale-appropriate user-facing message for a
// failed operation. The underlying error stays in the logs; the notice is
// what the surface shows.
func FailureNotice(locale domain.Locale, cause error) string {
	var encErr *encode.EncodingError
	var genErr *genai.GenerationError
	var valErr *codec.ValidationError

	arabic := locale == domain.LocaleArabic
	switch {
	case errors.As(cause, &encErr):
		if arabic {
			return "تعذرت قراءة الملف. جرّب ملفًا آخر."
		}
		return "The file could not be read. Try another file."
	case errors.As(cause, &genErr):
		if arabic {
			return "فشل إنشاء التطبيق. أعد المحاولة."
		}
		return "Generation failed. Please try again."
	case errors.As(cause, &valErr):
		if arabic {
			return "ملف الاستيراد ليس تصديرًا صالحًا."
		}
		return "That file is not a valid creation export."
	default:
		if arabic {
			return "حدث خطأ ما. أعد المحاولة."
		}
		return "Something went wrong. Please try again."
	}
}
