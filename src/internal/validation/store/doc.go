// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package store persists validation runs in SQLite through GORM.
//
// Every run is stored once with its simple report rows, one per token, and the
// JSON encoding of the complete reports. Runs are identified by random UUIDs.
package store
