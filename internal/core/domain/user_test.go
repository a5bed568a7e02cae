package domain

import (
	"encoding/json"
	"testing"
)

func TestUser_UnmarshalID(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"string", `{"id":"abc"}`, "abc"},
		{"integer", `{"id":42}`, "42"},
		{"large integer", `{"id":9007199254740993}`, "9007199254740993"},
		{"null", `{"id":null}`, ""},
		{"absent", `{"email":"a@b.com"}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var u User
			if err := json.Unmarshal([]byte(tc.body), &u); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if u.ID != tc.want {
				t.Fatalf("got id %q, want %q", u.ID, tc.want)
			}
		})
	}
}

func TestUser_UnmarshalKeepsOtherFields(t *testing.T) {
	var u User
	body := `{"id":1,"email":"a@b.com","first_name":"Ada","role":"ADMIN","token":"t","data":{"role":"USER"}}`
	if err := json.Unmarshal([]byte(body), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.ID != "1" || u.Email != "a@b.com" || u.FirstName != "Ada" || u.Role != RoleAdmin || u.Token != "t" || u.Data["role"] != "USER" {
		t.Fatalf("unexpected user: %+v", u)
	}

	out, err := json.Marshal(&u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back User
	if err := json.Unmarshal(out, &back); err != nil || back.ID != "1" {
		t.Fatalf("round trip: %+v %v", back, err)
	}
}

func TestUser_UnmarshalRejectsObjectID(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"id":{"x":1}}`), &u); err == nil {
		t.Fatalf("expected error for object id")
	}
}

func TestUser_EffectiveRole(t *testing.T) {
	cases := []struct {
		name string
		user *User
		want Role
	}{
		{"top level", &User{Role: RoleAdmin}, RoleAdmin},
		{"data fallback", &User{Data: map[string]any{"role": "ADMIN"}}, RoleAdmin},
		{"top level wins", &User{Role: RoleUser, Data: map[string]any{"role": "ADMIN"}}, RoleUser},
		{"none", &User{}, ""},
		{"nil", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.user.EffectiveRole(); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
