package models

import "time"

// Answer is a reply under a post. Answers are append-only.
type Answer struct {
	ID         string    `json:"id" firestore:"-" bson:"_id"`
	PostID     string    `json:"post_id" firestore:"-" bson:"post_id"`
	Text       string    `json:"text" firestore:"text" bson:"text"`
	AuthorID   string    `json:"author_id" firestore:"authorId" bson:"author_id"`
	AuthorName string    `json:"author_name" firestore:"authorName" bson:"author_name"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt,serverTimestamp" bson:"created_at"`
}

// CreateAnswerRequest defines the request body for answering a post
type CreateAnswerRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}
