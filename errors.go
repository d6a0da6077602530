/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Guard-condition failures surfaced to the offending connection as an
// "error" event, never broadcast room-wide. Messages are user-facing.
var (
	errDuplicateSession        = errors.New("this id is already playing in another window")
	errInvalidState            = errors.New("not logged in")
	errAlreadyQueued           = errors.New("you are already in the matchmaking queue")
	errAlreadyInRoom           = errors.New("you are already in a room")
	errInvalidRoomID           = errors.New("room id must be exactly 4 digits")
	errRoomFull                = errors.New("that room is full")
	errRoomAlreadyPlaying      = errors.New("that game has already started")
	errRoomLimitExceeded       = errors.New("the server is full, please try again later")
	errRoomAllocationExhausted = errors.New("could not allocate a room id, please try again")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
