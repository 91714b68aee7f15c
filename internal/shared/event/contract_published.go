package event

import "time"

const ContractPublishedDestination string = "contract_published"
const ContractPublishedConsumerAlert string = "contract_published_alert"

type ContractPublishedMessage struct {
	ContractID  int64     `json:"contract_id"`
	Version     int32     `json:"version"`
	PublishedAt time.Time `json:"published_at"`
}
