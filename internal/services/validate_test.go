package services

import "testing"

func TestValidateDisplayName(t *testing.T) {
	valid := []string{"Hero_99", "abc", "Player_Name_16ch"}
	for _, name := range valid {
		if err := ValidateDisplayName(name); err != nil {
			t.Errorf("ValidateDisplayName(%q) unexpected error: %v", name, err)
		}
	}

	invalid := []string{
		"",
		"ab",
		"seventeen_chars_x",
		"has space",
		"emojié",
		"semi;colon",
		"admin_guy",
		"FuckYou",
	}
	for _, name := range invalid {
		if err := ValidateDisplayName(name); err == nil {
			t.Errorf("ValidateDisplayName(%q) expected error", name)
		}
	}
}
