package core

// DefaultIcon is used when a category has no icon or an unknown one.
const DefaultIcon = "Briefcase"

// Icons maps the symbolic icon names a category may carry to their display label.
var Icons = map[string]string{
	"Briefcase":   "Investment",
	"Wallet":      "Savings",
	"Car":         "Transport",
	"BookOpen":    "Education",
	"Heart":       "Personal",
	"Home":        "Housing",
	"ShoppingBag": "Shopping",
	"Coffee":      "Food",
	"Gift":        "Gifts",
}

// NormalizeIcon returns name if it is a known icon, DefaultIcon otherwise.
func NormalizeIcon(name string) string {
	if _, ok := Icons[name]; ok {
		return name
	}
	return DefaultIcon
}
