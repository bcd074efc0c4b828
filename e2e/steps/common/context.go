package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// TestContext carries the HTTP client and the state one scenario builds up.
type TestContext struct {
	baseURL    string
	adminToken string
	client     *http.Client

	// Admin identity sent on admin requests.
	AdminActor  string
	AdminGrants string

	lastStatus int
	lastBody   []byte

	DriverID string
	Version  int64
}

func NewTestContext(baseURL, adminToken string) *TestContext {
	return &TestContext{
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminToken: adminToken,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears scenario state between scenarios.
func (tc *TestContext) Reset() {
	tc.AdminActor = "e2e-admin"
	tc.AdminGrants = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.DriverID = ""
	tc.Version = 0
}

// Do sends body as JSON. Admin requests carry the token and actor headers;
// withToken=false sends an admin request without the token.
func (tc *TestContext) Do(method, path string, body any, admin, withToken bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		if withToken {
			req.Header.Set("X-Admin-Token", tc.adminToken)
		}
		req.Header.Set("X-Admin-Actor", tc.AdminActor)
		if tc.AdminGrants != "" {
			req.Header.Set("X-Admin-Grants", tc.AdminGrants)
		}
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) Admin(method, path string, body any) error {
	return tc.Do(method, path, body, true, true)
}

func (tc *TestContext) Applicant(method, path string, body any) error {
	return tc.Do(method, path, body, false, false)
}

func (tc *TestContext) Status() int { return tc.lastStatus }

// Field resolves a dotted path such as "driver.status" or "items.0.risk.level"
// in the last JSON response.
func (tc *TestContext) Field(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w (body %s)", err, tc.lastBody)
	}
	cur := doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", path, tc.lastBody)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("field %q does not resolve in %s", path, tc.lastBody)
		}
	}
	return cur, nil
}

// FieldString renders a field the way it would be written in a feature file.
func (tc *TestContext) FieldString(path string) (string, error) {
	v, err := tc.Field(path)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return fmt.Sprint(t), nil
	}
}

// Remember captures the driver id and version from the last response. An
// empty driverPath means the response body is the driver itself.
func (tc *TestContext) Remember(driverPath string) error {
	prefix := ""
	if driverPath != "" {
		prefix = driverPath + "."
	}
	id, err := tc.FieldString(prefix + "id")
	if err != nil {
		return err
	}
	v, err := tc.Field(prefix + "version")
	if err != nil {
		return err
	}
	f, ok := v.(float64)
	if !ok {
		return fmt.Errorf("version is %T, not a number", v)
	}
	tc.DriverID = id
	tc.Version = int64(f)
	return nil
}
