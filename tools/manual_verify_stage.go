// Command manual_verify_stage round-trips a local file through the
// staged-file engine against a real AWS S3 bucket, using credentials
// supplied on the command line as if a Snowflake PUT/GET response had
// handed them out. The S3 client uses the region's default AWS endpoint;
// no custom endpoint can be set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/deltarule/sfclient/pkg/schema"
	"github.com/deltarule/sfclient/pkg/stage"
)

func main() {
	bucket := flag.String("bucket", "", "S3 bucket name")
	bucketPath := flag.String("bucket-path", "manual-verify/", "Key prefix inside the bucket")
	region := flag.String("region", "us-east-1", "AWS region")
	accessKey := flag.String("access-key", os.Getenv("AWS_ACCESS_KEY_ID"), "AWS access key ID")
	secretKey := flag.String("secret-key", os.Getenv("AWS_SECRET_ACCESS_KEY"), "AWS secret access key")
	sessionToken := flag.String("session-token", os.Getenv("AWS_SESSION_TOKEN"), "AWS session token")
	flag.Parse()

	if *bucket == "" || *accessKey == "" || *secretKey == "" {
		log.Fatal("manual_verify_stage: -bucket, -access-key, and -secret-key are required")
	}

	tempDir, err := os.MkdirTemp("", "sfclient_manual_verify")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	srcPath := filepath.Join(tempDir, "roundtrip.csv")
	if err := os.WriteFile(srcPath, []byte("a,b,c\n1,2,3\n"), 0o600); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote source file: %s\n", srcPath)

	descriptor := schema.PutGetResponseData{
		SrcLocations: []string{srcPath},
		Threshold:    1_000_000,
		Parallel:     1,
		StageInfo: schema.PutGetStageInfo{
			Aws: &schema.AwsPutGetStageInfo{
				Location: *bucket + "/" + *bucketPath,
				Region:   *region,
				Creds: schema.AwsCredentials{
					AwsKeyID:     *accessKey,
					AwsSecretKey: *secretKey,
					AwsToken:     *sessionToken,
				},
			},
		},
	}

	engine := stage.NewEngine(4, 64_000_000)

	ctx := context.Background()
	fmt.Println("Uploading...")
	if err := engine.Upload(ctx, descriptor); err != nil {
		log.Fatalf("upload failed: %v", err)
	}
	fmt.Println("✓ Upload succeeded")

	downloadDir := filepath.Join(tempDir, "downloaded") + string(os.PathSeparator)
	if err := os.Mkdir(downloadDir, 0o700); err != nil {
		log.Fatal(err)
	}
	getDescriptor := descriptor
	getDescriptor.LocalLocation = &downloadDir

	fmt.Println("Downloading...")
	if err := engine.Download(ctx, getDescriptor); err != nil {
		log.Fatalf("download failed: %v", err)
	}
	fmt.Println("✓ Download succeeded")

	roundTripped, err := os.ReadFile(filepath.Join(downloadDir, "roundtrip.csv"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Round-tripped content: %q\n", string(roundTripped))
	fmt.Println("=== Manual Verification Complete ===")
}
