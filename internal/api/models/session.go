package models

// MoveRequest places the next mark on a cell, numbered 0-8 row by row.
type MoveRequest struct {
	Cell *int `json:"cell" binding:"required"`
}

// JumpRequest moves the session to a recorded step.
type JumpRequest struct {
	Step *int `json:"step" binding:"required"`
}
