// services/reminder_service.go
package services

import (
	"context"
	"strings"
	"time"

	"polizas-backend/models"
	"polizas-backend/utils"

	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"

	reminderSent   = "sent"
	reminderFailed = "failed"

	StepMarkNotified = "mark_notified"
	StepLogReminder  = "log_reminder"
)

// MessageSender delivers a text message and returns the provider id.
type MessageSender interface {
	Send(to, from, body string) (string, error)
}

type TwilioSender struct {
	client *twilio.RestClient
}

func NewTwilioSender(accountSid, authToken string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
	}
}

func (t *TwilioSender) Send(to, from, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

type ReminderLogStore interface {
	CreateReminderLog(ctx context.Context, entry *models.ReminderLog) error
}

type GormReminderLogStore struct {
	db *gorm.DB
}

func NewGormReminderLogStore(db *gorm.DB) *GormReminderLogStore {
	return &GormReminderLogStore{db: db}
}

func (s *GormReminderLogStore) CreateReminderLog(ctx context.Context, entry *models.ReminderLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

type ReminderOptions struct {
	SMSFrom      string
	WhatsAppFrom string
	Template     string
}

type ReminderResult struct {
	Log       models.ReminderLog  `json:"log"`
	Notice    models.PolicyNotice `json:"notice"`
	Secondary []*SecondaryResult  `json:"secondary"`
}

// ReminderService contacts the client of a notice over WhatsApp or SMS.
type ReminderService struct {
	notices *NoticeService
	logs    ReminderLogStore
	sender  MessageSender
	opts    ReminderOptions
	logger  *zap.Logger
	now     func() time.Time
}

// NewReminderService builds the service. A nil sender disables sending.
func NewReminderService(notices *NoticeService, logs ReminderLogStore, sender MessageSender, opts ReminderOptions, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{
		notices: notices,
		logs:    logs,
		sender:  sender,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// SendNoticeReminder messages the client about the notice and, when the
// notice was still avisar, marks it avisado on behalf of actor.
func (s *ReminderService) SendNoticeReminder(ctx context.Context, actor *Identity, noticeID uuid.UUID) (ReminderResult, error) {
	if actor == nil {
		return ReminderResult{}, ErrNotAuthenticated
	}
	if s.sender == nil {
		return ReminderResult{}, ErrMessagingDisabled
	}

	notice, err := s.notices.GetNotice(ctx, noticeID)
	if err != nil {
		return ReminderResult{}, err
	}
	if notice.Status == models.StatusPagado {
		return ReminderResult{}, ErrNoticeAlreadyPaid
	}
	if notice.Policy == nil || notice.Policy.Client == nil {
		return ReminderResult{}, invalidInput("El aviso no tiene un cliente asociado")
	}
	client := notice.Policy.Client
	if strings.TrimSpace(client.Phone) == "" {
		return ReminderResult{}, invalidInput("El cliente no tiene teléfono cargado")
	}

	message := RenderReminder(s.opts.Template, notice)
	to, from, channel := s.route(client.Phone)

	entry := models.ReminderLog{
		NoticeID: notice.ID,
		ClientID: client.ID,
		Channel:  channel,
		Message:  message,
		Status:   reminderSent,
		SentBy:   actor.DisplayName,
		SentAt:   s.now(),
	}

	sid, sendErr := s.sender.Send(to, from, message)
	if sendErr != nil {
		s.logger.Warn("failed to send reminder", zap.String("to", client.Phone), zap.Error(sendErr))
		entry.Status = reminderFailed
		entry.ErrorMessage = sendErr.Error()
	} else {
		s.logger.Info("reminder sent", zap.String("to", client.Phone), zap.String("sid", sid), zap.String("channel", channel))
	}

	result := ReminderResult{Notice: notice}
	if err := s.logs.CreateReminderLog(ctx, &entry); err != nil {
		s.logger.Warn("failed to log reminder", zap.String("notice_id", notice.ID.String()), zap.Error(err))
		result.Secondary = append(result.Secondary, secondaryFailed(StepLogReminder, err))
	} else {
		result.Secondary = append(result.Secondary, secondaryOK(StepLogReminder))
	}
	result.Log = entry

	if sendErr != nil {
		return result, storeError("Error al enviar el recordatorio", sendErr)
	}

	if notice.Status == models.StatusAvisar {
		updated, err := s.notices.UpdateNoticeStatus(ctx, actor, notice.ID, models.StatusAvisado)
		if err != nil {
			s.logger.Warn("failed to mark notice notified", zap.String("notice_id", notice.ID.String()), zap.Error(err))
			result.Secondary = append(result.Secondary, secondaryFailed(StepMarkNotified, err))
		} else {
			result.Notice = updated.Notice
			result.Secondary = append(result.Secondary, secondaryOK(StepMarkNotified))
		}
	}
	return result, nil
}

// route picks WhatsApp for E.164 numbers when a WhatsApp sender is
// configured, SMS otherwise.
func (s *ReminderService) route(phone string) (to, from, channel string) {
	cleaned := utils.CleanPhone(phone)
	if strings.HasPrefix(cleaned, "+") && s.opts.WhatsAppFrom != "" {
		return "whatsapp:" + cleaned, "whatsapp:" + s.opts.WhatsAppFrom, ChannelWhatsApp
	}
	return cleaned, s.opts.SMSFrom, ChannelSMS
}

// RenderReminder replaces [ClientName], [Branch], [Company] and [DueDate]
// in template with the notice's data.
func RenderReminder(template string, notice models.PolicyNotice) string {
	var clientName, branch, company string
	if p := notice.Policy; p != nil {
		branch = string(p.Branch)
		if p.Client != nil {
			clientName = p.Client.FullName
		}
		if p.Company != nil {
			company = p.Company.Name
		}
	}
	return strings.NewReplacer(
		"[ClientName]", clientName,
		"[Branch]", branch,
		"[Company]", company,
		"[DueDate]", notice.DueDate.Format("02/01/2006"),
	).Replace(template)
}
