package guard

// DefaultTerms is the built-in denylist grouped by category.
// Terms are matched on word boundaries, with an optional plural suffix.
var DefaultTerms = map[string][]string{
	"explicit": {
		"porn", "pornhub", "xvideos", "sex", "sexy", "xxx", "naked", "nude", "nudity", "nsfw",
		"adult", "escort", "hookup", "onlyfans", "brazzers", "xhamster", "anal",
	},
	"drugs": {
		"drug", "meth", "cocaine", "heroin", "fentanyl", "weed", "cannabis", "ecstasy",
		"pill", "vape", "smoke",
	},
	"violence": {
		"kill", "murder", "blood", "gore", "deadly", "death", "assault", "violence", "shooting",
	},
	"self-harm": {
		"suicide", "suicidal", "self-harm", "self harm", "cutting", "kill myself", "die",
	},
	"weapons": {
		"gun", "rifle", "pistol", "bomb", "weapon", "ammunition", "explosive",
	},
	"gambling": {
		"gambling", "casino", "betting", "poker", "slot", "jackpot", "lottery",
	},
	"malicious": {
		"hack", "exploit", "malware", "ransomware", "keylogger", "phishing", "darkweb", "dark web", "tor",
	},
	"hate": {
		"hate", "slur", "racist", "extremist", "terrorist", "nazi", "hitler",
	},
}
