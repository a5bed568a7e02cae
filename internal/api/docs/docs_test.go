package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestSwaggerDocument(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}

	var doc struct {
		Swagger string                    `json:"swagger"`
		Info    map[string]any            `json:"info"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("document is not valid json: %v", err)
	}
	if doc.Swagger != "2.0" || doc.Info["title"] != SwaggerInfo.Title {
		t.Fatalf("unexpected header: swagger=%q info=%v", doc.Swagger, doc.Info)
	}

	routes := map[string]string{
		"/auth/login":             "post",
		"/auth/register":          "post",
		"/auth/social/{provider}": "post",
		"/auth/logout":            "post",
		"/auth/reset-password":    "post",
		"/auth/me":                "get",
		"/auth/admin":             "get",
		"/auth/state":             "get",
		"/health":                 "get",
		"/health/ready":           "get",
	}
	for path, method := range routes {
		if _, ok := doc.Paths[path][method]; !ok {
			t.Errorf("missing %s %s", method, path)
		}
	}
}
