package schema

import "strings"

var abbreviations = map[string]string{
	// Common Nouns
	"nm": "name", "dt": "date", "no": "number", "cd": "code",
	"desc": "description", "amt": "amount", "cnt": "count", "qty": "quantity",
	"addr": "address", "tel": "phone", "hp": "phone", "ph": "phone",
	"biz": "business", "pwd": "password", "passwd": "password", "pw": "password",
	"img": "image", "url": "url", "ip": "ip", "zip": "zipcode", "post": "zipcode",
	"msg": "message", "txt": "text", "tit": "title", "subj": "subject",
	"doc": "document", "usr": "user", "emp": "employee",
	"dept": "department", "grp": "group", "cat": "category",
	"loc": "location", "lat": "latitude", "lng": "longitude", "lon": "longitude",
	"st": "street", "bal": "balance", "avg": "average",
	"uid": "id", "pid": "id", "guid": "uuid",

	// Verbs / Status
	"reg": "registered", "mod": "modified", "del": "deleted", "cre": "created",
	"upd": "updated", "yn": "yesno", "stat": "status", "sts": "status",
	"typ": "type", "val": "value", "ord": "order", "seq": "sequence", "idx": "index",
	"is": "yesno", "has": "yesno", "flg": "flag",
}

var commentHints = []struct {
	meaning  string
	keywords []string
}{
	{"phone", []string{"mobile", "phone", "telephone"}},
	{"email", []string{"email", "e-mail", "mail"}},
	{"address", []string{"address"}},
	{"zipcode", []string{"zip", "postal"}},
	{"name", []string{"name"}},
	{"password", []string{"password", "secret"}},
	{"description", []string{"desc", "summary"}},
	{"date", []string{"date", "time"}},
	{"price", []string{"price", "cost", "amount"}},
	{"count", []string{"count", "qty", "quantity"}},
	{"yesno", []string{"flag", "whether"}},
	{"country", []string{"country"}},
	{"city", []string{"city"}},
	{"ip", []string{"ip address"}},
}

// AnalyzeMeaning derives a semantic hint for a column from its comment or,
// failing that, from the abbreviations in its name.
func AnalyzeMeaning(colName, comment string) string {
	c := strings.ToLower(comment)
	if c != "" {
		for _, hint := range commentHints {
			for _, k := range hint.keywords {
				if strings.Contains(c, k) {
					return hint.meaning
				}
			}
		}
	}

	n := strings.ToLower(splitCamel(colName))
	parts := strings.FieldsFunc(n, func(r rune) bool { return r == '_' || r == ' ' || r == '-' })
	decoded := make([]string, 0, len(parts))
	for _, part := range parts {
		if full, ok := abbreviations[part]; ok {
			decoded = append(decoded, full)
		} else {
			decoded = append(decoded, part)
		}
	}
	return strings.Join(decoded, " ")
}

// splitCamel inserts underscores at lower-to-upper case boundaries, so that
// "CreatedAt" and "created_at" decode alike.
func splitCamel(s string) string {
	var sb strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' && prev >= 'a' && prev <= 'z' {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
		prev = r
	}
	return sb.String()
}
