// Command sfcli authenticates against a Snowflake account and runs a single
// SQL statement, printing a JSON rowset as JSON and Arrow record batches in
// their text form.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	sfclient "github.com/deltarule/sfclient"
	"github.com/deltarule/sfclient/pkg/metrics"
	"github.com/deltarule/sfclient/pkg/query"
)

func main() {
	account := flag.String("account", os.Getenv("SNOWFLAKE_ACCOUNT"), "Snowflake account identifier")
	user := flag.String("user", os.Getenv("SNOWFLAKE_USER"), "Username")
	password := flag.String("password", os.Getenv("SNOWFLAKE_PASSWORD"), "Password (ignored if -private-key-path is set)")
	privateKeyPath := flag.String("private-key-path", os.Getenv("SNOWFLAKE_PRIVATE_KEY_PATH"), "Path to a PEM-encoded RSA private key, for keypair auth")
	warehouse := flag.String("warehouse", os.Getenv("SNOWFLAKE_WAREHOUSE"), "Warehouse")
	database := flag.String("database", os.Getenv("SNOWFLAKE_DATABASE"), "Database")
	schema := flag.String("schema", os.Getenv("SNOWFLAKE_SCHEMA"), "Schema")
	role := flag.String("role", os.Getenv("SNOWFLAKE_ROLE"), "Role")
	sql := flag.String("sql", "", "SQL statement to run")
	timeout := flag.Duration("timeout", 2*time.Minute, "Statement timeout")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics server address (e.g. :9090); empty = disabled")
	flag.Parse()

	if *sql == "" {
		log.Fatal("sfcli: -sql is required")
	}
	if *account == "" || *user == "" {
		log.Fatal("sfcli: -account and -user are required")
	}

	var m *metrics.ClientMetrics
	if *metricsAddr != "" {
		m = metrics.NewClientMetrics()
		go m.Serve(*metricsAddr)
	}

	opts := []sfclient.Option{sfclient.WithMetrics(m)}

	var client *sfclient.Client
	if *privateKeyPath != "" {
		pemBytes, err := os.ReadFile(*privateKeyPath)
		if err != nil {
			log.Fatalf("sfcli: read private key: %v", err)
		}
		client = sfclient.NewWithKeypairAuth(*account, *user, pemBytes, *warehouse, *database, *schema, *role, opts...)
	} else {
		client = sfclient.New(*account, *user, *password, *warehouse, *database, *schema, *role, opts...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := client.Exec(ctx, *sql)
	if err != nil {
		log.Fatalf("sfcli: exec failed: %v", err)
	}
	defer result.Release()

	if err := printResult(result); err != nil {
		log.Fatalf("sfcli: print result: %v", err)
	}

	if err := client.Close(ctx); err != nil {
		log.Printf("sfcli: close session: %v", err)
	}
}

func printResult(result query.Result) error {
	switch result.Kind {
	case query.ResultEmpty:
		fmt.Println("{}")
		return nil
	case query.ResultJSON:
		enc, err := json.Marshal(result.JSON)
		if err != nil {
			return err
		}
		fmt.Println(string(enc))
		return nil
	case query.ResultTabular:
		for _, batch := range result.Batches {
			fmt.Println(batch)
		}
		return nil
	default:
		return fmt.Errorf("sfcli: unknown result kind %d", result.Kind)
	}
}
