package profile

// Config contains user-profile service client configuration. An empty
// BaseURL disables the client entirely; the resolution path then runs
// without profile-based hints.
type Config struct {
	BaseURL       string `env:"PROFILE_SERVICE_URL"`
	Timeout       int    `env:"PROFILE_TIMEOUT"        envDefault:"5"`
	CacheTTL      int    `env:"PROFILE_CACHE_TTL"      envDefault:"360"`
	SweepInterval int    `env:"PROFILE_SWEEP_INTERVAL" envDefault:"60"`
}
