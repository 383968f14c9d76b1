package notifications

import "github.com/openclaw/geo-monitor/internal/models"

// NotificationInterface delivers reports and operational alerts
type NotificationInterface interface {
	// SendReport delivers a summary over every configured channel
	SendReport(report *models.Report) error
	// SendAlert delivers a short notice, such as a failed pass
	SendAlert(alert *models.Alert) error
}
