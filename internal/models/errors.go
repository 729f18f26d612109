package models

import "errors"

var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrActivityNotFound = errors.New("weather-sensitive activity not found")
)
