package app

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"worksite/internal/config"
)

var globalS3Client *s3.Client

func MustConnectS3() {
	cfg := config.Global().S3

	awsCfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to load aws config")
		panic(err)
	}

	globalS3Client = s3.NewFromConfig(awsCfg)
	globalLogger.Info().
		Str("bucket", cfg.Bucket).
		Str("region", cfg.Region).
		Msg("configured s3 client")
}
