package sms

import "testing"

func TestRender(t *testing.T) {
	template := "Привет, {fullname}! Ваша ссылка: {link}. Бонус {referrer_bonus} руб."
	got := Render(template, map[string]string{
		"fullname":       "Иванов Иван",
		"link":           "https://ref.example/QQ==",
		"referrer_bonus": "500",
	})
	want := "Привет, Иванов Иван! Ваша ссылка: https://ref.example/QQ==. Бонус 500 руб."
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

// Unknown placeholders stay verbatim so a template typo is visible in the
// message log instead of silently vanishing.
func TestRender_UnknownPlaceholderKept(t *testing.T) {
	got := Render("Бонус {bonsu}", map[string]string{"bonus": "300"})
	if got != "Бонус {bonsu}" {
		t.Errorf("Render = %q, want the typo kept", got)
	}
}
