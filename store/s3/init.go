package s3

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/zenkj/ossfs/store"
)

const Type store.Type = "s3"

func init() {
	store.Register(Type, CreateStoreFromOptions)
}

type Options struct {
	Endpoint     string `mapstructure:"endpoint" validate:"required"`
	User         string `mapstructure:"user"`
	Secret       string `mapstructure:"secret"`
	Token        string `mapstructure:"token"`
	Secure       bool   `mapstructure:"secure"`
	Bucket       string `mapstructure:"bucket" validate:"required"`
	Region       string `mapstructure:"region"`
	BucketLookup string `mapstructure:"bucketLookup"`
	// Enable/disable HTTP tracing in the console
	Trace bool `mapstructure:"trace"`
}

func CreateStoreFromOptions(options any) (store.Store, error) {
	opts := Options{
		BucketLookup: "path",
	}

	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, errors.Wrapf(err, "could not parse '%s' store options", Type)
	}

	validate := validator.New()
	if err := validate.Struct(&opts); err != nil {
		return nil, errors.Wrapf(err, "could not validate '%s' store options", Type)
	}

	creds := credentials.NewStaticV4(opts.User, opts.Secret, opts.Token)

	minioOpts := &minio.Options{
		Creds:  creds,
		Secure: opts.Secure,
		Region: opts.Region,
	}

	switch opts.BucketLookup {
	case "dns":
		minioOpts.BucketLookup = minio.BucketLookupDNS
	case "path":
		minioOpts.BucketLookup = minio.BucketLookupPath
	default:
		return nil, errors.Errorf("unknown bucket lookup value '%s', expected 'dns' or 'path'", opts.BucketLookup)
	}

	client, err := minio.New(opts.Endpoint, minioOpts)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if opts.Trace {
		client.TraceOn(os.Stdout)
	}

	return NewStore(client, opts.Bucket), nil
}
