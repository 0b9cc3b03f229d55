package user

import "testing"

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 123!", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890123", wantTag: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcdefg123", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "abcdefg12!", wantTag: pwdComplexityTag},
		{name: "similar to name", pwd: "Jane.Doe1", wantTag: pwdAttrSimTag},
		{name: "common", pwd: "Passw0rd!", wantTag: pwdNoCommonTag},
		{name: "valid", pwd: "Gr4ding-Rocks!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkPassword(tt.pwd, "Jane Doe", "jane.doe@school.test"); got != tt.wantTag {
				t.Errorf("checkPassword(%q) = %q; want %q", tt.pwd, got, tt.wantTag)
			}
		})
	}
}

func TestMaxRolePriority(t *testing.T) {
	if got := MaxRolePriority([]string{RoleStudent, RoleTeacher}); got != RolePriority(RoleTeacher) {
		t.Errorf("MaxRolePriority() = %d; want %d", got, RolePriority(RoleTeacher))
	}
	if got := MaxRolePriority(nil); got != 0 {
		t.Errorf("MaxRolePriority(nil) = %d; want 0", got)
	}
}
