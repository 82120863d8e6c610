package mail

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
)

// Template file names expected under the configured templates directory.
const (
	templateTwoFactor     = "2fa.html"
	templateVerifyEmail   = "verify-email.html"
	templatePasswordReset = "reset-password.html"
)

// Templates holds the parsed email templates. Loading fails fast at startup
// when any expected file is missing or malformed.
type Templates struct {
	set *template.Template
}

// LoadTemplates parses all expected templates from dir.
func LoadTemplates(dir string) (*Templates, error) {
	names := []string{templateTwoFactor, templateVerifyEmail, templatePasswordReset}

	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, filepath.Join(dir, name))
	}

	set, err := template.ParseFiles(paths...)
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}

	return &Templates{set: set}, nil
}

// Render executes the named template with data and returns the HTML body.
func (t *Templates) Render(name string, data any) (string, error) {
	var buf strings.Builder
	if err := t.set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
