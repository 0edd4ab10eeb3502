package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	Port         string
	WorkerCount  int
	APIAccessKey string

	// Fact-check service configuration
	FactCheckURL        string
	FactCheckAPIKey     string
	FactCheckMode       string
	PollIntervalSeconds int
	MaxPollAttempts     int

	// Scheduling configuration
	SchedulerInterval   int
	AggregationSchedule string

	// Optional integrations
	RedisAddr      string
	ScoringProfile string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
