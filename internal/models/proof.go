package models

import "github.com/timmyblive/customheroes-storybook-sub000/internal/utils"

// ProofStatus описывает состояние макета внутри заказа.
type ProofStatus string

const (
	ProofStatusPending           ProofStatus = "pending"            // Макет еще не загружен
	ProofStatusUploaded          ProofStatus = "uploaded"           // Макет загружен сотрудником
	ProofStatusSent              ProofStatus = "sent"               // Макет отправлен клиенту
	ProofStatusApproved          ProofStatus = "approved"           // Макет утвержден клиентом
	ProofStatusRevisionRequested ProofStatus = "revision_requested" // Клиент запросил правки
)

// DeliveryStatus — статус доставки письма с макетом.
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryOpened    DeliveryStatus = "opened"
)

// Proof — макет книги, связанный 1:1 с заказом.
// revision_count только растет, send_history пополняется без удалений.
type Proof struct {
	OrderID       string             `json:"order_id"`
	ArtifactURL   string             `json:"artifact_url,omitempty"`
	Status        ProofStatus        `json:"status"`
	RevisionCount int                `json:"revision_count"`
	CustomerNotes string             `json:"customer_notes,omitempty"`
	ApprovedAt    *utils.RFC3339Date `json:"approved_at,omitempty"`
	SendHistory   []ProofSendRecord  `json:"send_history,omitempty"`
	UpdatedAt     utils.RFC3339Date  `json:"updated_at"`
}

// ProofArtifactRequest — запрос загрузки или замены макета.
type ProofArtifactRequest struct {
	ArtifactURL *string `json:"artifact_url"`
}

// SendProofRequest — запрос отправки макета клиенту.
// Resend повторяет отправку уже отосланного макета без смены статуса.
type SendProofRequest struct {
	Resend *bool `json:"resend"`
}

// RevisionRequest — запрос правок макета от клиента.
type RevisionRequest struct {
	Notes *string `json:"notes"`
}

// DeliveryCallback — обратный вызов диспетчера рассылок о судьбе
// письма с макетом.
type DeliveryCallback struct {
	Status *string `json:"status"`
}

// ProofSendRecord — неизменяемая запись об отправке макета клиенту.
// Создается при каждой отправке и повторной отправке.
type ProofSendRecord struct {
	ID             string            `json:"id"`
	OrderID        string            `json:"order_id"`
	ArtifactURL    string            `json:"artifact_url"`
	IsRevision     bool              `json:"is_revision"`
	RevisionNumber int               `json:"revision_number"`
	DeliveryStatus DeliveryStatus    `json:"delivery_status"`
	SentAt         utils.RFC3339Date `json:"sent_at"`
}
