package io

// Document is the on-disk form of a service graph.
type Document struct {
	Categories    []string  `yaml:"categories" json:"categories,omitempty"`
	HiddenModules []string  `yaml:"hidden_modules" json:"hidden_modules,omitempty"`
	Services      []Service `yaml:"services" json:"services" validate:"dive"`
}

// Service is one service entry.
type Service struct {
	Name        string      `yaml:"name" json:"name" validate:"required"`
	FullName    string      `yaml:"full_name" json:"full_name,omitempty"`
	Category    string      `yaml:"category" json:"category,omitempty"`
	Module      string      `yaml:"module" json:"module,omitempty"`
	Language    string      `yaml:"language" json:"language,omitempty"`
	Description string      `yaml:"description" json:"description,omitempty"`
	Owners      []string    `yaml:"owners" json:"owners,omitempty"`
	Broker      string      `yaml:"broker" json:"broker,omitempty" validate:"omitempty,oneof=kafka activemq rabbitmq"`
	Status      string      `yaml:"status" json:"status,omitempty"`
	Product     bool        `yaml:"product" json:"product,omitempty"`
	Unavailable bool        `yaml:"unavailable" json:"unavailable,omitempty"`
	Queues      []Queue     `yaml:"queues" json:"queues,omitempty" validate:"dive"`
	ConnectTo   []ConnectTo `yaml:"connect_to" json:"connect_to,omitempty" validate:"dive"`
}

// Queue is a declared rabbitmq queue.
type Queue struct {
	Name     string    `yaml:"name" json:"name" validate:"required"`
	Bindings []Binding `yaml:"bindings" json:"bindings,omitempty" validate:"dive"`
}

// Binding routes an exchange into a queue.
type Binding struct {
	Exchange   string `yaml:"exchange" json:"exchange" validate:"required"`
	RoutingKey string `yaml:"routing_key" json:"routing_key,omitempty"`
}

// ConnectTo is one outbound connector. At most one channel collection may
// be set.
type ConnectTo struct {
	Name        string    `yaml:"name" json:"name" validate:"required"`
	Direction   string    `yaml:"direction" json:"direction" validate:"required,oneof=rx tx"`
	Transport   string    `yaml:"transport" json:"transport,omitempty"`
	Protocol    string    `yaml:"protocol" json:"protocol,omitempty"`
	Description string    `yaml:"description" json:"description,omitempty"`
	Topics      []Channel `yaml:"topics" json:"topics,omitempty" validate:"dive"`
	Queues      []Channel `yaml:"queues" json:"queues,omitempty" validate:"dive"`
	Exchanges   []Channel `yaml:"exchanges" json:"exchanges,omitempty" validate:"dive"`
	CeleryTasks []Channel `yaml:"celery_tasks" json:"celery_tasks,omitempty" validate:"dive"`
}

// Channel is one channel of a connector.
type Channel struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Description string `yaml:"description" json:"description,omitempty"`
	Exchange    string `yaml:"exchange" json:"exchange,omitempty"`
	RoutingKey  string `yaml:"routing_key" json:"routing_key,omitempty"`
	Queue       string `yaml:"queue" json:"queue,omitempty"`
}
