package bot

import "strings"

// callbackPrefixes are the actions encoded as "<prefix><single parameter>".
// The parameter may itself contain ":" or "_".
var callbackPrefixes = []struct {
	prefix, action string
}{
	{"close_ticket_", "close_ticket"},
	{"license_info_", "license_info"},
	{"license_analytics_", "license_analytics"},
	{"extend_license_", "extend_license"},
}

// ParseCallback splits callback data into an action and its parameters.
// Prefix forms win when a non-empty parameter follows the prefix; anything
// else is split on ":".
func ParseCallback(data string) (action string, params []string) {
	data = strings.TrimSpace(data)
	for _, p := range callbackPrefixes {
		if rest, ok := strings.CutPrefix(data, p.prefix); ok && rest != "" {
			return p.action, []string{rest}
		}
	}
	parts := strings.Split(data, ":")
	return parts[0], parts[1:]
}

// CallbackData joins an action and parameters in the ":" form.
func CallbackData(action string, params ...string) string {
	if len(params) == 0 {
		return action
	}
	return action + ":" + strings.Join(params, ":")
}
