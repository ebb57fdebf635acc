package container

// Options configures the server. Every field is also read from a SERVICE_* environment variable.
type Options struct {
	Port                  int    `default:"8888"  help:"Port to listen on"                                                 short:"p"`
	DatabaseURL           string `default:""      help:"PostgreSQL connection string; links are kept in memory when empty" short:"d"`
	RedisAddr             string `default:""      help:"Redis address for the link cache and event streams"                short:"r"`
	CacheTTLSeconds       int    `default:"86400" help:"Lifetime of cached links in Redis"`
	CodeSource            string `default:"uuid"  help:"Short code source: uuid or nanoid"`
	CodeLength            int    `default:"8"     help:"Length of nanoid short codes"                                      short:"c"`
	MaxCreateAttempts     int    `default:"5"     help:"Insert attempts before giving up on a colliding code"`
	JWTSecret             string `default:""      help:"Secret signing owner tokens; a random one is used when empty"`
	TokenTTLHours         int    `default:"8760"  help:"Lifetime of issued owner tokens"`
	StatsTimezone         string `default:"UTC"   help:"IANA time zone the daily statistics are computed in"`
	RequestTimeoutSeconds int    `default:"3"     help:"Per-request timeout"`
	EmbeddedConsumer      bool   `default:"false" help:"Run the analytics consumers inside the server"`
	LogFormat             string `default:"json"  help:"Log output format: json or console"`
	LogLevel              string `default:"info"  help:"Minimum log level"`
}

// UsesRedis reports whether a Redis server is configured.
func (o *Options) UsesRedis() bool {
	return o.RedisAddr != ""
}

// UsesPostgres reports whether links are persisted in PostgreSQL.
func (o *Options) UsesPostgres() bool {
	return o.DatabaseURL != ""
}

// RunsEmbeddedConsumer reports whether the server consumes its own events.
// Without Redis the events never leave the process, so the consumers always run inside it.
func (o *Options) RunsEmbeddedConsumer() bool {
	return o.EmbeddedConsumer || !o.UsesRedis()
}
