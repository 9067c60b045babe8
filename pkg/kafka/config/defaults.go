package kafka_config

import "time"

const (
	// Empty broker list disables event publication.
	DefaultKafkaBrokers = ""
	DefaultTopic        = "carhub.events"
	DefaultDLQTopic     = ""

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // Require all replicas
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = true
	DefaultProducerWriteTimeout = 5 * time.Second

	DefaultEnableMiddleware = true
)
