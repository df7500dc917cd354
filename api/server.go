package api

import (
	"context"
	"fmt"
	"os"

	"github.com/Envislon1/create-joy/api/controllers"
	"github.com/Envislon1/create-joy/api/transport"
	"github.com/Envislon1/create-joy/logging"
	"github.com/Envislon1/create-joy/paystack"
	"github.com/Envislon1/create-joy/settlement"
	"github.com/Envislon1/create-joy/storage"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
)

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

func (s *Server) Start() {
	r := transport.NewRouter(gin.DebugMode)

	// Create storage
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logging.Log.Errorf("failed to load AWS config: %v", err)
		panic("failed to load AWS config")
	}

	dynamoClient := dynamodb.NewFromConfig(cfg)

	contestantStorage := &storage.DynamoContestantStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameContestants,
	}
	transactionStorage := &storage.DynamoVoteTransactionStorage{
		Client:               dynamoClient,
		TableName:            s.config.TableNameTransactions,
		ContestantsTableName: s.config.TableNameContestants,
	}
	settingsStorage := &storage.DynamoContestSettingsStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameContestSettings,
	}

	// Payment gateway + settlement engine
	gateway := paystack.NewClient(s.config.PaystackConfig.SecretKey)
	gateway.BaseURL = s.config.PaystackConfig.BaseURL
	verifier := settlement.NewVerifier(settingsStorage, contestantStorage, transactionStorage, gateway, s.config.Currency)
	boost := settlement.NewAdministrator(settingsStorage, contestantStorage, s.config.Bonuses)

	//Register controllers
	votingController := controllers.NewVotingController(verifier, transactionStorage, contestantStorage, settingsStorage)
	votingController.RegisterRoutes(r)
	contestantsController := controllers.NewContestantsController(contestantStorage)
	contestantsController.RegisterRoutes(r)
	adminController := controllers.NewAdminController(settingsStorage, contestantStorage, transactionStorage, boost)
	adminController.RegisterRoutes(r)

	//Do not run lambda helper locally
	if os.Getenv("APP_ENV") == "local" {
		startLocal(r, s.config.Port)
	} else {
		startLambda(r)
	}
}

// StartLambda sets up for AWS Lambda
func startLambda(engine *gin.Engine) {
	ginLambda := ginadapter.NewV2(engine)

	handler := func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		logging.Log.Infof("Lambda handler triggered on path: %s", req.RawPath)
		return ginLambda.ProxyWithContext(ctx, req)
	}

	logging.Log.Info("Starting lambda")
	lambda.Start(handler)
}

// StartLocal starts a normal HTTP server on the configured port
func startLocal(engine *gin.Engine, port int) {
	logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", port))

	if err := engine.Run(fmt.Sprintf(":%d", port)); err != nil {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
}
