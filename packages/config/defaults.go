package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout:    10000, // 10 seconds
		InactivityTimeout: 30000, // 30 seconds
		TotalTimeout:      30000, // 30 seconds
		RedirectPolicy:    "strict",
		MaxRedirects:      10,
		ValidateSSL:       BoolPtr(true),
		Headers:           nil,
		NoColor:           BoolPtr(false),
	}
}
