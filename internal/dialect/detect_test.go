package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPostgres(t *testing.T) {
	header := []byte("--\n-- PostgreSQL database dump\n--\n\nSET search_path = public;\n")
	got := Detect(header)
	assert.Equal(t, Postgres, got.Dialect)
	assert.Equal(t, High, got.Confidence)
}

func TestDetectMySQL(t *testing.T) {
	header := []byte("-- MySQL dump 10.13\nLOCK TABLES `users` WRITE;\n")
	got := Detect(header)
	assert.Equal(t, MySQL, got.Dialect)
}

func TestDetectMssql(t *testing.T) {
	header := []byte("SET ANSI_NULLS ON\nGO\nCREATE TABLE [dbo].[Users] (\n  [Id] INT IDENTITY(1,1)\n)\nGO\n")
	got := Detect(header)
	assert.Equal(t, Mssql, got.Dialect)
	assert.Equal(t, High, got.Confidence)
}

func TestDetectDefaultsToMySQLLow(t *testing.T) {
	got := Detect([]byte("hello world"))
	assert.Equal(t, MySQL, got.Dialect)
	assert.Equal(t, Low, got.Confidence)
}

func TestDetectTruncatesHeaderWindow(t *testing.T) {
	big := make([]byte, HeaderWindow+100)
	for i := range big {
		big[i] = ' '
	}
	copy(big[HeaderWindow+10:], []byte("PostgreSQL database dump"))
	got := Detect(big)
	assert.Equal(t, MySQL, got.Dialect)
	assert.Equal(t, Low, got.Confidence)
}
