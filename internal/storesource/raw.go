package storesource

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RawCompany is the payload of GET /company/by-suburl/{suburl}. Company fields
// can arrive at the root, nested under companyConfig, or both.
type RawCompany struct {
	CompanyID   FlexString  `json:"companyId"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	PhotoURL    string      `json:"photoUrl"`
	Color       string      `json:"color"`
	Country     string      `json:"country"`
	Advantages  FlexStrings `json:"companyAdvantages"`
	Benefits    FlexStrings `json:"companyBenefits"`
	Config      *RawConfig  `json:"companyConfig"`
	Branches    []RawBranch `json:"branches"`
}

type RawConfig struct {
	CompanyID          FlexString  `json:"companyId"`
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	CompanyDescription string      `json:"companyDescription"`
	PhotoURL           string      `json:"photoUrl"`
	Color              string      `json:"color"`
	Country            string      `json:"country"`
	Advantages         FlexStrings `json:"companyAdvantages"`
	Benefits           FlexStrings `json:"companyBenefits"`
}

type RawBranch struct {
	BranchID      FlexString      `json:"branchId"`
	BranchName    string          `json:"branchName"`
	Address       string          `json:"address"`
	BranchAddress string          `json:"branchAddress"`
	Location      string          `json:"location"`
	Coordinates   json.RawMessage `json:"coordinates"`
	Jobs          []RawJob        `json:"jobs"`
}

type RawJob struct {
	JobID   FlexString      `json:"jobId"`
	JobName string          `json:"jobName"`
	Salary  json.RawMessage `json:"salary"`
}

// FlexString accepts a JSON string or number; numbers keep their decimal text.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		// booleans or objects carry no usable id
		*f = ""
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexStrings decodes a list whose items are strings or objects with a
// title/name/text field. Anything else decodes to an empty list.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		*f = nil
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		if json.Unmarshal(it, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Title string `json:"title"`
			Name  string `json:"name"`
			Text  string `json:"text"`
		}
		if json.Unmarshal(it, &obj) == nil {
			if s := firstNonEmpty(obj.Title, obj.Name, obj.Text); s != "" {
				out = append(out, s)
			}
		}
	}
	*f = out
	return nil
}

// rawNumberOrString returns the text of a JSON scalar.
func rawNumberOrString(b json.RawMessage) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", false
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", false
	}
	return n.String(), true
}

func parseFloatText(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
