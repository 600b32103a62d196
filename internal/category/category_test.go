package category

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"AWS Basics", "AWS"},
		{"Amazon Web Services Solutions Architect", "AWS"},
		{"Azure 101", "Azure"},
		{"Simulado AZ-900", "Azure"},
		{"Google Cloud Associate Engineer", "Google Cloud"},
		{"CKA: Certified Kubernetes Administrator", "Kubernetes"},
		{"CompTIA Security+ SY0-701", "Segurança"},
		{"CompTIA A+ Core 1", "CompTIA"},
		{"CCNA 200-301", "Cisco"},
		{"PMP Simulado Completo", "Gestão de Projetos"},
		{"Lawson Data Migration", "Dados"},
		{"Rawsome Guide", General},
		{"", General},
	}
	for _, tc := range tests {
		t.Run(tc.title, func(t *testing.T) {
			if got := Detect(tc.title); got != tc.want {
				t.Errorf("Detect(%q) = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}

func TestOrDetect(t *testing.T) {
	if got := OrDetect("  Custom ", "AWS Basics"); got != "Custom" {
		t.Errorf("explicit category lost: %q", got)
	}
	if got := OrDetect("", "AWS Basics"); got != "AWS" {
		t.Errorf("fallback = %q", got)
	}
}
