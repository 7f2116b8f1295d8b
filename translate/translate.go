// Package translate formats user-visible messages for the LS-8 tools in the
// language of the current locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

var printer *message.Printer

// systemLanguages returns the preferred languages of the host, falling
// back to en-US.
func systemLanguages() []string {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("ls8: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	return locales
}

func init() {
	printer = message.NewPrinter(message.MatchLanguage(systemLanguages()...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
