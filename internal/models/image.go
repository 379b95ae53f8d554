package models

import "time"

// FallbackImage хранит фото в базе, если загрузка в объектное хранилище не удалась
type FallbackImage struct {
	ID        string    `json:"id" firestore:"-" bson:"_id"`
	ImageData string    `json:"imageData" firestore:"imageData" bson:"imageData"`
	Size      int       `json:"size" firestore:"size" bson:"size"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
}

// StoredImage - результат приёма фото
type StoredImage struct {
	URL      string `json:"imageURL"`
	Filename string `json:"filename"`
	Note     string `json:"note,omitempty"`
}

// ImagePayload - раскодированное фото с типом содержимого
type ImagePayload struct {
	ContentType string
	Data        []byte
}
