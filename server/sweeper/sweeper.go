package sweeper

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/nusely/CFLSMS/server/dispatch"
	"github.com/nusely/CFLSMS/server/logger"
	"github.com/nusely/CFLSMS/server/models"
	"github.com/nusely/CFLSMS/server/sms"
	"github.com/nusely/CFLSMS/shared"
)

const (
	DEFAULT_SWEEP_SCHEDULE = "* * * * *"

	// Rows handled per sweep run
	SWEEP_BATCH_LIMIT = 50
)

var logg = logger.NewLogger()

// Sweeper periodically drains due scheduled messages through the sms
// gateway, recording each attempt in history.
type Sweeper struct {
	gateway   sms.Gateway
	scheduler *gocron.Scheduler
	schedule  string
}

func New(gateway sms.Gateway, config shared.CronConfig) (*Sweeper, error) {
	timeZone, err := time.LoadLocation(config.TimeZone)
	if err != nil {
		logg.Warnf("unknown time zone %q, falling back to UTC", config.TimeZone)
		timeZone = time.UTC
	}

	schedule := config.SweepSchedule
	if schedule == "" {
		schedule = DEFAULT_SWEEP_SCHEDULE
	}

	scheduler := gocron.NewScheduler(timeZone)
	scheduler.TagsUnique()

	sweeper := &Sweeper{gateway: gateway, scheduler: scheduler, schedule: schedule}

	_, err = scheduler.Cron(schedule).Tag("scheduled-sms-sweep").Do(sweeper.Sweep)
	if err != nil {
		return nil, err
	}

	return sweeper, nil
}

func (sweeper *Sweeper) Start() {
	sweeper.scheduler.StartAsync()
	logg.Infof("scheduled-sms sweep running on cron %q", sweeper.schedule)
}

func (sweeper *Sweeper) Stop() {
	sweeper.scheduler.Stop()
}

// Sweep drains one batch of due rows. Each row is attempted once; on
// failure it moves to 'failed' with the error recorded and is not retried.
func (sweeper *Sweeper) Sweep() {
	due, err := models.DueScheduledSms(SWEEP_BATCH_LIMIT)
	if err != nil {
		logg.Errorf("unable to fetch due scheduled sms: %v", err)
		return
	}

	for i := range due {
		sweeper.process(&due[i])
	}
}

func (sweeper *Sweeper) process(scheduled *models.ScheduledSms) {
	// Rows stored without a matched contact carry blank names and go out
	// with the stored message raw, tokens untouched.
	message := scheduled.Message
	if scheduled.FirstName != "" || scheduled.LastName != "" {
		message = dispatch.Personalize(scheduled.Message, scheduled.FirstName, scheduled.LastName)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()

	receipt, sendErr := sweeper.gateway.Send(ctx, scheduled.Recipient, message)

	record := models.SmsHistory{
		Recipient:      scheduled.Recipient,
		Message:        message,
		Status:         models.SENT_HISTORY_STATUS,
		DeliveryStatus: string(sms.DeliveryPending),
		OwnerUserID:    scheduled.OwnerUserID,
	}

	if sendErr != nil {
		record.Status = models.FAILED_HISTORY_STATUS
		record.DeliveryStatus = string(sms.DeliveryFailed)
		record.ProviderResponse = sendErr.Error()
	}

	if receipt != nil {
		record.MessageID = receipt.MessageID
		record.ProviderResponse = receipt.ProviderResponse
	}

	if err := models.CreateSmsHistory(&record); err != nil {
		logg.Warnf("scheduled sms %v processed but history insert failed: %v", scheduled.ID, err)
	}

	if sendErr != nil {
		logg.Errorf("scheduled sms %v to %v failed: %v", scheduled.ID, scheduled.Recipient, sendErr)
		if err := scheduled.MarkFailed(sendErr.Error()); err != nil {
			logg.Errorf("unable to mark scheduled sms %v as failed: %v", scheduled.ID, err)
		}
		return
	}

	if err := scheduled.MarkSent(); err != nil {
		logg.Errorf("unable to mark scheduled sms %v as sent: %v", scheduled.ID, err)
	}
}
