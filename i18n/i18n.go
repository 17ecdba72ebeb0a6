package i18n

import (
	"log"
	"os"
	"strings"

	"github.com/jeandeaual/go-locale"
)

// LangEnv forces the UI language, bypassing locale detection.
const LangEnv = "SCANBOOTH_LANG"

var lang string

var translations = map[string]map[string]string{
	"Scan vertical": {
		"pt": "Varredura vertical",
		"es": "Escaneo vertical",
		"ru": "Вертикальное сканирование",
	},
	"Scan horizontal": {
		"pt": "Varredura horizontal",
		"es": "Escaneo horizontal",
		"ru": "Горизонтальное сканирование",
	},
	"Download": {
		"pt": "Baixar",
		"es": "Descargar",
		"ru": "Скачать",
	},
	"Flip camera": {
		"pt": "Trocar câmera",
		"es": "Cambiar cámara",
		"ru": "Сменить камеру",
	},
	"No camera feed": {
		"pt": "Sem imagem da câmera",
		"es": "Sin señal de cámara",
		"ru": "Нет изображения с камеры",
	},
	"Ready": {
		"pt": "Pronto",
		"es": "Listo",
		"ru": "Готово",
	},
	"Get ready": {
		"pt": "Prepare-se",
		"es": "Prepárate",
		"ru": "Приготовьтесь",
	},
	"Scanning": {
		"pt": "Varrendo",
		"es": "Escaneando",
		"ru": "Сканирование",
	},
	"Done": {
		"pt": "Concluído",
		"es": "Terminado",
		"ru": "Готово",
	},
	"Saved": {
		"pt": "Salvo",
		"es": "Guardado",
		"ru": "Сохранено",
	},
	"Error": {
		"pt": "Erro",
		"es": "Error",
		"ru": "Ошибка",
	},
}

func init() {
	lang = detect(os.Getenv(LangEnv), locale.GetLocales)
	log.Printf("Language set to: %s", lang)
}

// detect picks the language from the override or else the first system
// locale, falling back to english.
func detect(forced string, locales func() ([]string, error)) string {
	if forced = strings.TrimSpace(forced); forced != "" {
		log.Printf("%s is set to: '%s'", LangEnv, forced)
		return forced
	}

	log.Printf("%s is not set, detecting from system locale.", LangEnv)
	userLocales, err := locales()
	if err != nil {
		log.Println("Could not get user locale, defaulting to english")
		return "en"
	}
	if len(userLocales) == 0 {
		log.Println("No user locale detected, defaulting to english")
		return "en"
	}

	userLocale := userLocales[0]
	log.Printf("Detected user locale: %s", userLocale)
	for _, l := range []string{"pt", "es", "ru"} {
		if strings.HasPrefix(userLocale, l) {
			return l
		}
	}
	return "en"
}

func T(key string) string {
	if translated, ok := translations[key][lang]; ok {
		return translated
	}
	return key
}

func GetLang() string {
	return lang
}

// SetLang switches the language at runtime.
func SetLang(l string) {
	lang = l
}
