package config

// MailConfig represents the configuration for the mail store reader
type MailConfig struct {
	Client string
	DBPath string
}

// ScoringConfig represents the configuration for signal scoring
type ScoringConfig struct {
	UserName           string
	TrustedDomains     []string
	BulkSenderPatterns []string
	PreviewMaxLen      int
}

// ClassifyConfig represents the category threshold configuration
type ClassifyConfig struct {
	ActionThreshold int
	FYIThreshold    int
}

// StoreConfig represents the configuration for the triage store
type StoreConfig struct {
	Type             string
	SQLitePath       string
	MySQLDSN         string
	CleanupFrequency string
	RetentionDays    int
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// GetMail returns the mail store configuration
func (c *Config) GetMail() MailConfig {
	return MailConfig{
		Client: c.GetString("mail.client"),
		DBPath: c.GetString("mail.db_path"),
	}
}

// GetScoring returns the scoring configuration
func (c *Config) GetScoring() ScoringConfig {
	return ScoringConfig{
		UserName:           c.GetString("scoring.user_name"),
		TrustedDomains:     c.GetStringSlice("scoring.trusted_domains"),
		BulkSenderPatterns: c.GetStringSlice("scoring.bulk_sender_patterns"),
		PreviewMaxLen:      c.GetInt("scoring.preview_max_len"),
	}
}

// GetClassify returns the classification configuration
func (c *Config) GetClassify() ClassifyConfig {
	return ClassifyConfig{
		ActionThreshold: c.GetInt("classify.action_threshold"),
		FYIThreshold:    c.GetInt("classify.fyi_threshold"),
	}
}

// GetStore returns the triage store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:             c.GetString("store.type"),
		SQLitePath:       c.GetString("store.sqlite_path"),
		MySQLDSN:         c.GetString("store.mysql_dsn"),
		CleanupFrequency: c.GetString("store.cleanup_frequency"),
		RetentionDays:    c.GetInt("store.retention_days"),
	}
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
