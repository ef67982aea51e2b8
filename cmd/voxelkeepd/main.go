// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command voxelkeepd runs the authoritative voxel-world server, adapted
// from server_main/main.go: same flag set and listener construction, wired
// to internal/game.Hub instead of server.Hub.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"golang.org/x/net/netutil"

	"github.com/ashgrove/voxelkeep/internal/game"
	"github.com/ashgrove/voxelkeep/internal/stats"
	"github.com/ashgrove/voxelkeep/internal/stats/dynamo"
)

// envOrDefault reads key from the environment, falling back to def when
// unset or empty. The CLI flags below use this for their own defaults, so
// an operator can configure voxelkeepd with either environment variables
// (spec.md §6) or flags, with an explicit flag on the command line always
// winning over both.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("main: invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func envInt64OrDefault(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("main: invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func main() {
	var (
		auth           string
		port           int
		maxConnections int
		seed           int64
		statsTable     string
		awsRegion      string
		serverID       string
	)

	flag.StringVar(&auth, "auth", envOrDefault("AUTH", ""), "admin auth code")
	flag.IntVar(&port, "port", envIntOrDefault("PORT", 3000), "http service port")
	flag.IntVar(&maxConnections, "max-connections", envIntOrDefault("MAX_CONNECTIONS", 256), "maximum number of inbound TCP connections")
	flag.Int64Var(&seed, "seed", envInt64OrDefault("SEED", 1), "world generation seed")
	flag.StringVar(&statsTable, "stats-table", "", "DynamoDB table for server statistics (empty disables cloud stats)")
	flag.StringVar(&awsRegion, "aws-region", "us-east-1", "AWS region for the statistics table")
	flag.StringVar(&serverID, "server-id", "voxelkeepd-0", "identifier for this server's statistics rows")
	flag.Parse()

	_ = auth // reserved: no authenticated admin endpoints exist yet.

	var cloud stats.Cloud = stats.Offline{}
	if statsTable != "" {
		sess, err := session.NewSession(&aws.Config{Region: aws.String(awsRegion)})
		if err != nil {
			log.Printf("stats: aws session error, falling back to offline: %v", err)
		} else {
			cloud = dynamo.New(sess, statsTable, serverID)
		}
	}

	hub := game.NewHub(game.HubOptions{
		Seed:           seed,
		MaxConnections: maxConnections,
		Cloud:          cloud,
	})

	go hub.Run()

	http.HandleFunc("/ws", hub.UpgradeAndServe)

	l, err := net.Listen("tcp", fmt.Sprint(":", port))
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer l.Close()

	l = netutil.LimitListener(l, maxConnections)

	log.Println("voxelkeepd started")
	log.Fatal("serve: ", http.Serve(l, nil))
}
