package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateOperatorMailData struct {
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

type ResetPasswordMailData struct {
	DisplayName string `json:"displayName"`
	OTP         string `json:"otp"`
	Expiration  int    `json:"expiration"`
}

type SwapDecisionMailData struct {
	DisplayName  string `json:"displayName"`
	PeerName     string `json:"peerName"`
	OriginalDate string `json:"originalDate"`
	TargetDate   string `json:"targetDate"`
	Decision     string `json:"decision"`
}

type VacationDecisionMailData struct {
	DisplayName string `json:"displayName"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Decision    string `json:"decision"`
	Reason      string `json:"reason"`
}
