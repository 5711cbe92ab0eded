package types

// Category is the kind of care reminder. The set is closed: anything else is
// treated as a forward-compatibility no-op and resolves to a disabled policy.
type Category string

const (
	CategoryWatering    Category = "watering"
	CategoryFertilizer  Category = "fertilizer"
	CategoryHealthCheck Category = "health_check"
	CategoryAchievement Category = "achievement"
	CategoryAlert       Category = "alert"
	CategorySystem      Category = "system"
)

// CareCategories are the recurring, cadence-driven categories evaluated per plant.
var CareCategories = []Category{CategoryWatering, CategoryFertilizer, CategoryHealthCheck}

func (c Category) Valid() bool {
	switch c {
	case CategoryWatering, CategoryFertilizer, CategoryHealthCheck,
		CategoryAchievement, CategoryAlert, CategorySystem:
		return true
	}
	return false
}

// Batchable reports whether candidates of this category may be combined into a
// single notification. Achievements and alerts always go out individually.
func (c Category) Batchable() bool {
	switch c {
	case CategoryWatering, CategoryFertilizer, CategoryHealthCheck:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type NotificationStatus string

const (
	StatusScheduled NotificationStatus = "scheduled"
	StatusDelivered NotificationStatus = "delivered"
	StatusCancelled NotificationStatus = "cancelled"
	StatusFailed    NotificationStatus = "failed"
	StatusSkipped   NotificationStatus = "skipped"
)

// Terminal reports whether the status permits no further transitions
// (interaction on a delivered record excepted).
func (s NotificationStatus) Terminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryCancelled DeliveryStatus = "cancelled"
	DeliverySkipped   DeliveryStatus = "skipped"
)

type Interaction string

const (
	InteractionOpened      Interaction = "opened"
	InteractionDismissed   Interaction = "dismissed"
	InteractionActionTaken Interaction = "action_taken"
)

type SkipReason string

const (
	SkipWeather      SkipReason = "weather"
	SkipDND          SkipReason = "dnd"
	SkipLimitReached SkipReason = "limit_reached"
	SkipUserDisabled SkipReason = "user_disabled"
)

type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
	SeasonWinter Season = "winter"
)

func (s Season) Valid() bool {
	switch s {
	case SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter:
		return true
	}
	return false
}
