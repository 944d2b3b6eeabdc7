package notify

import "example.com/companion/internal/domain"

// DeliveryHint tells the companion device how aggressively to surface a
// notification. Adapters translate it to platform haptic/sound/interruption
// classes.
type DeliveryHint struct {
	Haptic       string `json:"haptic"`
	Sound        bool   `json:"sound"`
	Interruption string `json:"interruption"`
}

// hintFor maps urgency onto a delivery hint. Critical cuts through focus
// modes; low stays silent in the tray.
func hintFor(urgency domain.Urgency) DeliveryHint {
	switch urgency {
	case domain.UrgencyCritical:
		return DeliveryHint{Haptic: "urgent", Sound: true, Interruption: "critical"}
	case domain.UrgencyHigh:
		return DeliveryHint{Haptic: "double", Sound: true, Interruption: "time_sensitive"}
	case domain.UrgencyLow:
		return DeliveryHint{Haptic: "none", Sound: false, Interruption: "passive"}
	default:
		return DeliveryHint{Haptic: "subtle", Sound: false, Interruption: "active"}
	}
}
