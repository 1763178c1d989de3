package patterns

import "github.com/ppiankov/codespectre/internal/models"

var defaultCategories = []CategoryInfo{
	{CategoryAPIKey, "hardcoded_api_key", models.SeverityCritical,
		"Load API keys from a secret manager or environment variable and rotate the exposed key"},
	{CategoryPassword, "hardcoded_password", models.SeverityCritical,
		"Move the password to a secret store and inject it at runtime"},
	{CategoryCredentials, "hardcoded_credentials", models.SeverityCritical,
		"Read tokens and private keys from the environment or a mounted secret"},
	{CategoryDatabase, "hardcoded_database_connection", models.SeverityHigh,
		"Build the connection string from configuration instead of embedding it"},
	{CategoryIPAddress, "hardcoded_ip_address", models.SeverityHigh,
		"Resolve hosts through configuration or service discovery"},
	{CategoryPort, "hardcoded_port", models.SeverityMedium,
		"Make the port configurable via environment or config file"},
	{CategoryURL, "hardcoded_url", models.SeverityMedium,
		"Move endpoint URLs into configuration"},
	{CategoryFilePath, "hardcoded_file_path", models.SeverityLow,
		"Derive paths from configuration or relative to the application root"},
	{CategoryDeprecated, "deprecated_architecture_pattern", models.SeverityHigh,
		"Replace the legacy construct with explicit dependency injection"},
}

var defaultRules = []Rule{
	{ID: "aws-access-key", Category: CategoryAPIKey, Sensitive: true,
		Value:       `\b(AKIA[0-9A-Z]{16})\b`,
		Description: "AWS access key id"},
	{ID: "github-token", Category: CategoryAPIKey, Sensitive: true,
		Value:       `\b(gh[pousr]_[A-Za-z0-9]{36,})\b`,
		Description: "GitHub token"},
	{ID: "openai-style-key", Category: CategoryAPIKey, Sensitive: true,
		Value:       `\b(sk-[A-Za-z0-9_-]{20,})`,
		Description: "secret API key"},
	{ID: "slack-token", Category: CategoryAPIKey, Sensitive: true,
		Value:       `\b(xox[abposr]-[A-Za-z0-9-]{10,})`,
		Description: "Slack token"},
	{ID: "google-api-key", Category: CategoryAPIKey, Sensitive: true,
		Value:       `\b(AIza[0-9A-Za-z_-]{35})`,
		Description: "Google API key"},
	{ID: "api-key-binding", Category: CategoryAPIKey, Sensitive: true,
		Binding:     `(?i)api[_-]?key`,
		Description: "API key"},

	{ID: "password-binding", Category: CategoryPassword, Sensitive: true,
		Binding:     `(?i)(passwd|password|pwd|passphrase)`,
		Description: "password"},
	{ID: "password-inline", Category: CategoryPassword, Sensitive: true,
		Value:       `(?i)\b(?:password|passwd|pwd)\s*[=:]\s*([^\s;&'"]+)`,
		Description: "inline password"},

	{ID: "credential-binding", Category: CategoryCredentials, Sensitive: true,
		Binding:     `(?i)(secret|token|credential|private[_-]?key|access[_-]?key|auth[_-]?key)`,
		Description: "credential"},
	{ID: "private-key-block", Category: CategoryCredentials, Sensitive: true,
		Value:       `(-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----)`,
		Description: "private key"},

	{ID: "db-connection-uri", Category: CategoryDatabase, Sensitive: true,
		Value:       `(?i)\b((?:postgres(?:ql)?|mysql|mariadb|mongodb(?:\+srv)?|rediss?|mssql|sqlserver|oracle|amqps?|cassandra|clickhouse)://[^\s'"<>]+)`,
		Description: "database connection string"},

	{ID: "ipv4-address", Category: CategoryIPAddress,
		Value:       `\b((?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)(?:\.(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)){3})\b`,
		Description: "IP address"},

	{ID: "numeric-port", Category: CategoryPort, PortRange: true,
		Numeric:     `^([1-9]\d{3,4})$`,
		Description: "port number"},
	{ID: "host-port", Category: CategoryPort, PortRange: true,
		Value:       `(?i)(?:localhost|\d{1,3}(?:\.\d{1,3}){3}|[a-z0-9-]+(?:\.[a-z0-9-]+)+|\[[0-9a-f:]+\]|[a-z][a-z0-9_-]*):(\d{2,5})\b`,
		Description: "port"},
	{ID: "listen-port", Category: CategoryPort, PortRange: true,
		Value:       `^:(\d{2,5})$`,
		Description: "port"},

	{ID: "url", Category: CategoryURL,
		Value:       `(?i)\b((?:https?|ftp|wss?)://[^\s'"<>]+)`,
		Description: "URL"},

	{ID: "unix-path", Category: CategoryFilePath,
		Value:       `^(/(?:etc|var|usr|opt|home|root|srv|mnt|tmp|data|Users|Library|app|run|dev|proc)(?:/[^\s/:*?"<>|]+)+/?)$`,
		Description: "file path"},
	{ID: "windows-path", Category: CategoryFilePath,
		Value:       `^([A-Za-z]:\\[^\s:*?"<>|]*)$`,
		Description: "Windows path"},

	{ID: "legacy-construct", Category: CategoryDeprecated,
		Value:       `\b(ServiceLocator|GlobalRegistry|global_(?:registry|container|state)|legacy_(?:component|adapter|handler)|Legacy\w*(?:Manager|Factory|Adapter))\b`,
		Description: "reference to deprecated construct"},
}

// DefaultDeprecatedPatterns are the text scanner's built-in expressions.
var DefaultDeprecatedPatterns = []string{
	`\bServiceLocator\b`,
	`\bglobal_(registry|container|state)\b`,
	`\blegacy_(component|adapter|handler)\b`,
	`\bLegacy\w*(Manager|Factory)\b`,
	`\bget_global_instance\s*\(`,
}

// Default returns the built-in library.
func Default() *Library {
	l := &Library{categories: make(map[Category]CategoryInfo, len(defaultCategories))}
	for _, info := range defaultCategories {
		l.order = append(l.order, info.Category)
		l.categories[info.Category] = info
	}
	for i := range defaultRules {
		rule := defaultRules[i]
		if err := rule.compile(); err != nil {
			panic(err)
		}
		l.rules = append(l.rules, &rule)
	}
	deprecated, err := CompileDeprecated(DefaultDeprecatedPatterns)
	if err != nil {
		panic(err)
	}
	l.deprecated = deprecated
	return l
}
