package wallet

import (
	"fmt"

	en "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// validate and translator are package-level singletons: validator.Validate
// caches struct reflection per type and is safe for concurrent use, exactly
// as the upstream docs recommend building it once.
var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	englishLocale := en.New()
	uni := ut.New(englishLocale, englishLocale)
	translator, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(fmt.Sprintf("wallet: register validator translations: %v", err))
	}
}

// SendInput is the validated shape of a wallet "send" command before its
// fields are parsed into chain types.
type SendInput struct {
	Recipient string `validate:"required"`
	Amount    string `validate:"required,numeric"`
}

// BalanceInput is the validated shape of a wallet "balance" command.
type BalanceInput struct {
	Address string `validate:"required"`
}

// Validate checks in against its struct tags, returning a human-readable,
// translated error describing every failing field.
func Validate(in any) error {
	if err := validate.Struct(in); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		msg := ""
		for _, fe := range verrs {
			if msg != "" {
				msg += "; "
			}
			msg += fe.Translate(translator)
		}
		return fmt.Errorf("wallet: %s", msg)
	}
	return nil
}
