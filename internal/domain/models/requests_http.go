package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type PricesRequest struct {
	From   string `query:"from" json:"from" validate:"omitempty,date"`
	To     string `query:"to" json:"to" validate:"omitempty,date"`
	Period string `query:"period" json:"period" default:"day" validate:"period"`
	Limit  int    `query:"limit" json:"limit" default:"5000" validate:"gte=1,lte=20000"`
	// Moving average windows; zero keeps the configured ones.
	Short int `query:"short" json:"short" validate:"omitempty,gte=10,lte=100"`
	Long  int `query:"long" json:"long" validate:"omitempty,gte=50,lte=300"`
}

type SummaryRequest struct {
	Window int `query:"window" json:"window" default:"30" validate:"gte=1,lte=365"`
}

// PhasesRequest leaves threshold and period empty when absent so the
// configured segmenter applies.
type PhasesRequest struct {
	Threshold float64 `query:"threshold" json:"threshold" validate:"omitempty,gt=0,lt=1"`
	Period    string  `query:"period" json:"period" validate:"omitempty,period"`
}

type ForecastRequest struct {
	Days int    `query:"days" json:"days" default:"7" validate:"gte=1,lte=365"`
	AsOf string `query:"as_of" json:"as_of" validate:"omitempty,date"`
}

type WindowRequest struct {
	From string `query:"from" json:"from" validate:"required,date"`
	To   string `query:"to" json:"to" validate:"required,date"`
	Top  int    `query:"top" json:"top" default:"5" validate:"gte=1,lte=50"`
}

type EventRequest struct {
	Key string `param:"key" json:"key" validate:"required"`
	Top int    `query:"top" json:"top" default:"5" validate:"gte=1,lte=50"`
}

type DashboardRequest struct {
	Threshold float64 `query:"threshold" json:"threshold" validate:"omitempty,gt=0,lt=1"`
	Period    string  `query:"period" json:"period" validate:"omitempty,period"`
	Days      int     `query:"days" json:"days" default:"7" validate:"gte=1,lte=365"`
}
