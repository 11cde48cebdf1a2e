package shared

type ServerConfig struct {
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Cflsms   CflsmsConfig   `mapstructure:"cflsms" validate:"required"`
	Sms      SmsConfig      `mapstructure:"sms" validate:"required"`
}

type DatabaseConfig struct {
	// 'postgres' for the hosted store, 'sqlite' for dev
	Driver     string `mapstructure:"driver" validate:"required"`
	Dsn        string `mapstructure:"dsn"`
	PassPhrase string `mapstructure:"passPhrase"`
}

type CflsmsConfig struct {
	PrivateKeyPem string         `mapstructure:"privateKeyPem" validate:"required"`
	Cron          CronConfig     `mapstructure:"cron" validate:"required"`
	Listener      ListenerConfig `mapstructure:"listener" validate:"required"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone" validate:"required"`

	// Cron expression for the scheduled-SMS sweep
	SweepSchedule string `mapstructure:"sweepSchedule"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}

type SmsConfig struct {
	// 'fish' or 'twilio'
	Provider string       `mapstructure:"provider" validate:"required"`
	Fish     FishConfig   `mapstructure:"fish"`
	Twilio   TwilioConfig `mapstructure:"twilio"`
}

type FishConfig struct {
	BaseURL   string `mapstructure:"baseUrl"`
	ApiKey    string `mapstructure:"apiKey"`
	AppID     string `mapstructure:"appId"`
	AppSecret string `mapstructure:"appSecret"`
	SenderID  string `mapstructure:"senderId"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"accountSid"`
	AuthToken           string `mapstructure:"authToken"`
	MessagingServiceSid string `mapstructure:"messagingServiceSid"`
}
