package mgo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"DevLink/config"
	"DevLink/tools/errs"
)

type Client struct {
	cli *mongo.Client
	db  *mongo.Database
}

func (c *Client) GetDB() *mongo.Database { return c.db }

func (c *Client) Close(ctx context.Context) error {
	return c.cli.Disconnect(ctx)
}

// NewClient initializes a MongoDB connection with bounded retry.
func NewClient(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	opts, err := applyConfigToOptions(cfg)
	if err != nil {
		return nil, err
	}

	var cli *mongo.Client
	for i := 0; i < cfg.MaxRetry; i++ {
		cli, err = connectMongo(ctx, opts)
		if err != nil && shouldRetry(ctx, err) {
			time.Sleep(time.Second / 2)
			continue
		}
		break
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "failed to connect to MongoDB", "uri", cfg.Uri)
	}

	return &Client{cli: cli, db: cli.Database(cfg.Database)}, nil
}

func applyConfigToOptions(cfg config.MongoConfig) (*options.ClientOptions, error) {
	if cfg.Uri == "" {
		return nil, errs.New("mongo uri is required")
	}
	// 优先使用完整 URI（可含参数 ?authSource=admin 等）
	opts := options.Client().ApplyURI(cfg.Uri)
	opts.SetMaxPoolSize(uint64(cfg.MaxPoolSize))

	// 认证：代码提供的用户名/密码覆盖 URI 中的认证（如有）
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{
			Username:   cfg.Username,
			Password:   cfg.Password,
			AuthSource: cfg.AuthSource,
		})
	}
	return opts, nil
}

func connectMongo(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return cli, nil
}

func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}
