package schema

// Declarative definition of the workflow document schema: the wf_definition
// root with its per-type configuration blocks, the starter variants, and the
// activity model used inside compiled workflows.
//
// Discriminated unions follow a single shape throughout: a "type" field
// (VariantKey) plus per-variant composites guarded by Equals conditions.
// Template-reference-or-inline-definition pairs use Alternative guards in
// both directions.

// workflowTypes are the accepted wf_definition.type discriminator values.
var workflowTypes = []string{
	"complex",
	"await_for_message",
	"rest_call",
	"db_call",
	"send_to_rabbitmq",
	"send_to_kafka",
	"send_to_s3",
	"send_to_sap",
	"xslt_transform",
	"transform",
}

// starterTypes are the accepted starter discriminator values.
var starterTypes = []string{
	"kafka_consumer",
	"sap_inbound",
	"rest_call",
	"scheduler",
	"rabbitmq_consumer",
	"mail_consumer",
}

// activityTypes are the accepted activity discriminator values.
var activityTypes = []string{
	"workflow_call",
	"inject",
	"switch",
	"timer",
	"transform",
	"parallel",
}

func workflowDefinition() *Node {
	return &Node{
		Name:        "wf_definition",
		Type:        TypeComposite,
		Required:    true,
		VariantKey:  "type",
		Description: "Workflow definition",
		Children: []*Node{
			enum(sf("type", true, "Type of the workflow"), workflowTypes...),
			sf("name", true, "Name of the workflow"),
			sf("tenantId", false, "ID of the system using the workflow"),
			nf("version", false, "Version of the workflow"),
			lf("description", false, "Description of the workflow"),
			cond(obj("compiled", "Composite body of a complex workflow",
				sf("start", true, "Activity ID of the workflow entry point"),
				activitiesNode(),
				jf("outputTemplate", false, "Filter for output data"),
			), Equals{Field: "type", Value: "complex"}),
			cond(definitionDetails(), NotEquals{Field: "type", Value: "complex"}),
			&Node{
				Name:        "flowEditorConfig",
				Type:        TypeComposite,
				Description: "UI layout data, does not affect execution",
			},
		},
	}
}

func definitionDetails() *Node {
	return obj("details", "Input/output parameters and per-type configuration",
		jf("inputValidateSchema", false, "JSON schema for input validation"),
		jf("outputValidateSchema", false, "JSON schema for output validation"),
		startersNode(),
		cond(sendToKafkaConfig(), Equals{Field: "type", Value: "send_to_kafka"}),
		cond(sendToS3Config(), Equals{Field: "type", Value: "send_to_s3"}),
		cond(restCallConfig(), Equals{Field: "type", Value: "rest_call"}),
		cond(xsltTransformConfig(), Equals{Field: "type", Value: "xslt_transform"}),
		cond(databaseCallConfig(), Equals{Field: "type", Value: "db_call"}),
		cond(sendToRabbitmqConfig(), Equals{Field: "type", Value: "send_to_rabbitmq"}),
		cond(awaitForMessageConfig(), Equals{Field: "type", Value: "await_for_message"}),
		cond(sendToSapConfig(), Equals{Field: "type", Value: "send_to_sap"}),
	)
}

// startersNode models the details.starters array element: one discriminated
// starter per element, defaulting to a plain REST trigger.
func startersNode() *Node {
	n := arr("starters", true, "Triggers that start the workflow",
		dflt(enum(sf("type", true, "Starter type"), starterTypes...), "rest_call"),
		cond(sf("name", true, "Starter name"), NotEquals{Field: "type", Value: "rest_call"}),
		sf("description", false, "Starter description"),
		cond(rabbitmqConsumerNode(), Equals{Field: "type", Value: "rabbitmq_consumer"}),
		cond(kafkaConsumerNode(), Equals{Field: "type", Value: "kafka_consumer"}),
		cond(sapInboundNode(), Equals{Field: "type", Value: "sap_inbound"}),
		cond(schedulerNode(), Equals{Field: "type", Value: "scheduler"}),
		cond(mailConsumerNode(), Equals{Field: "type", Value: "mail_consumer"}),
	)
	n.VariantKey = "type"
	return n
}

func rabbitmqConsumerNode() *Node {
	return obj("rabbitmqConsumer", "RabbitMQ consumer configuration",
		sf("queue", true, "Queue name"),
		obj("connectionDef", "Connection parameters",
			sf("userName", true, "Username"),
			sf("userPass", true, "Password"),
			arr("addresses", true, "Connection addresses and ports"),
			sf("virtualHost", true, "Virtual host"),
		),
		jf("payloadValidateSchema", false, "Message validation schema"),
		jf("outputTemplate", false, "Variable declaration based on message data"),
	)
}

func kafkaConsumerNode() *Node {
	return obj("kafkaConsumer", "Kafka consumer configuration",
		sf("topic", true, "Topic name"),
		obj("connectionDef", "Connection parameters",
			sf("bootstrapServers", true, "Bootstrap servers"),
			kafkaAuthDef(false),
		),
		jf("payloadValidateSchema", false, "Message validation schema"),
		jf("keyValidateSchema", false, "Key validation schema"),
		jf("headersValidateSchema", false, "Headers validation schema"),
		jf("outputTemplate", false, "Variable declaration based on message data"),
	)
}

// kafkaAuthDef is shared by the Kafka consumer starter (where authentication
// is optional) and the send_to_kafka config (where the source demands it).
func kafkaAuthDef(required bool) *Node {
	n := &Node{
		Name:        "authDef",
		Type:        TypeComposite,
		Required:    required,
		VariantKey:  "type",
		Description: "Authentication parameters",
		Children: []*Node{
			enum(sf("type", true, "Authentication type"), "SASL", "TLS"),
			cond(obj("sasl", "SASL authentication",
				enum(sf("protocol", true, "SASL protocol"), "SASL_SSL", "SASL_PLAINTEXT"),
				enum(sf("mechanism", true, "SASL mechanism"), "OAUTHBEARER", "SCRAM-SHA-512"),
				sf("username", true, "Username"),
				sf("password", true, "Password"),
				cond(obj("sslDef", "Certificates for SCRAM",
					sf("trustStoreType", false, "Certificate type"),
					lf("trustStoreCertificates", false, "Certificate body"),
				), Equals{Field: "mechanism", Value: "SCRAM-SHA-512"}),
				cond(sf("tokenUrl", true, "Token URL"), Equals{Field: "mechanism", Value: "OAUTHBEARER"}),
			), Equals{Field: "type", Value: "SASL"}),
			cond(obj("tls", "TLS authentication",
				lf("keyStoreCertificates", true, "Client public key"),
				lf("keyStoreKey", true, "Client private key"),
				lf("trustStoreCertificates", true, "Root certificate"),
				sf("trustStoreType", true, "Certificate type"),
			), Equals{Field: "type", Value: "TLS"}),
		},
	}
	return n
}

func sapInboundNode() *Node {
	return obj("sapInbound", "SAP inbound configuration",
		obj("inboundDef", "SAP inbound details",
			sf("name", true, "Starter name"),
			obj("connectionDef", "Connection parameters", sapProps()),
		),
	)
}

func sapProps() *Node {
	return obj("props", "Connection properties",
		sf("jco.client.lang", true, "Client language"),
		sf("jco.client.passwd", true, "Password"),
		sf("jco.client.user", true, "Username"),
		nf("jco.client.sysnr", true, "SAP system number"),
		nf("jco.destination.pool_capacity", true, "Max connections in pool"),
		nf("jco.destination.peak_limit", true, "Max simultaneous connections"),
		nf("jco.client.client", true, "SAP client number"),
		sf("jco.client.ashost", true, "Host"),
	)
}

func schedulerNode() *Node {
	cronFields := []string{"dayOfWeek", "month", "dayOfMonth", "hour", "minute"}
	cron := obj("cron", "Cron schedule; at least one parameter must be set")
	for i, f := range cronFields {
		others := make([]string, 0, len(cronFields)-1)
		others = append(others, cronFields[:i]...)
		others = append(others, cronFields[i+1:]...)
		cron.Children = append(cron.Children,
			cond(sf(f, true, "Cron "+f), NonePresent{Fields: others}))
	}
	return obj("scheduler", "Scheduler configuration",
		dflt(sf("type", true, "Scheduler type"), "cron"),
		cron,
		df("startDateTime", true, "Start date and time"),
		df("endDateTime", false, "End date and time"),
	)
}

func mailConsumerNode() *Node {
	return obj("mailConsumer", "Mail consumer configuration",
		obj("connectionDef", "Connection parameters",
			dflt(sf("protocol", true, "Protocol"), "imap"),
			sf("host", true, "Connection host"),
			sf("port", true, "Port"),
			obj("mailAuth", "Authentication parameters",
				sf("username", true, "Email"),
				sf("password", true, "Password"),
			),
		),
		obj("mailFilter", "Email filters",
			arr("senders", false, "Sender emails"),
			arr("subjects", false, "Email subjects"),
			df("startMailDateTime", false, "Start date for unread emails"),
		),
	)
}

// activitiesNode models the compiled.activities array element: the base
// activity shape plus per-type fields. Requiredness is evaluated once
// against the element schema, not per array instance.
func activitiesNode() *Node {
	n := arr("activities", true, "Activities of the workflow",
		sf("id", true, "Unique activity identifier within the process"),
		sf("description", false, "Description of the activity step"),
		sf("transition", true, "ID of the next activity, null when the branch ends"),
		enum(sf("type", true, "Activity type"), activityTypes...),
		cond(workflowCallNode(), OneOf{Field: "type", Any: []string{"workflow_call", "inject"}}),
		cond(jf("injectData", true, "Data to inject, e.g. constants or transformed variables"),
			Equals{Field: "type", Value: "inject"}),
		sf("outputFilter", false, "Transforms outgoing data after activity completion"),
		cond(arr("dataConditions", true, "Conditions and their transitions",
			s4f("condition", true, "Condition script in Lua format"),
			s4f("conditionDescription", false, "Description of the condition"),
			s4f("transition", false, "Activity ID when the condition is true"),
		), Equals{Field: "type", Value: "switch"}),
		cond(obj("defaultTransition", "Behavior when all conditions are false",
			sf("transition", true, "Activity ID when all conditions are false"),
			s4f("conditionDescription", false, "Description of the default condition"),
		), Equals{Field: "type", Value: "switch"}),
		cond(arr("branches", true, "Activity IDs to execute in parallel"),
			Equals{Field: "type", Value: "parallel"}),
		cond(enum(sf("completionType", true, "Completion type for parallel branches"), "anyOf", "allOf"),
			Equals{Field: "type", Value: "parallel"}),
		cond(sf("timerDuration", true, "ISO 8601 duration before the next transition"),
			Equals{Field: "type", Value: "timer"}),
		cond(transformConfig("transform"), Equals{Field: "type", Value: "transform"}),
	)
	n.VariantKey = "type"
	return n
}

func workflowCallNode() *Node {
	return obj("workflowCall", "Subprocess invocation",
		jf("args", false, "Input arguments for the activity"),
		cond(obj("workflowRef", "Reference to a predefined workflow template",
			cond(sf("id", true, "ID of the workflow template"), Alternative{Fields: []string{"name"}}),
			cond(sf("name", true, "Name of the workflow template"), Alternative{Fields: []string{"id"}}),
			nf("version", false, "Version of the template"),
			sf("tenantId", false, "ID of the system using the template"),
		), Alternative{Fields: []string{"workflowDef"}}),
		cond(obj("workflowDef", "Inline definition of the called subprocess",
			enum(sf("type", true, "Type of the subprocess"), workflowTypes[1:]...),
			obj("details", "Details of the subprocess"),
		), Alternative{Fields: []string{"workflowRef"}}),
		&Node{
			Name:        "retryConfig",
			Type:        TypeComposite,
			Description: "Retry policy configuration",
			Children: []*Node{
				sf("initialInterval", false, "Initial retry interval, ISO 8601 duration"),
				sf("maxInterval", false, "Maximum interval between retries"),
				nf("maxAttempts", false, "Maximum number of retry attempts"),
				ff("backoffCoefficient", false, "Interval growth coefficient, minimum 1.0"),
			},
		},
		&Node{
			Name:        "failActivityResult",
			Type:        TypeComposite,
			Description: "Transition on unsuccessful retry completion",
			Children: []*Node{
				enum(arr("retryStates", false, "States triggering the transition"),
					"RETRY_STATE_MAXIMUM_ATTEMPTS_REACHED"),
				cond(lf("variables", true, "Variables declared on retry exit"),
					Present{Field: "outputFilter"}),
			},
		},
	)
}

func sendToKafkaConfig() *Node {
	return refOrDef("sendToKafkaConfig", "Kafka message configuration",
		"Reference to a Kafka connection template",
		obj("connectionDef", "Inline Kafka connection",
			sf("bootstrapServers", true, "Kafka bootstrap servers"),
			kafkaAuthDef(true),
		),
		sf("topic", true, "Kafka topic"),
		sf("Key", true, "Message key"),
		obj("message", "Message to send",
			sf("payload", true, "Message body"),
		),
		jf("messageProperties", true, "Message properties"),
	)
}

func sendToS3Config() *Node {
	return refOrDef("sendToS3Config", "S3 upload configuration",
		"Reference to an S3 connection template",
		obj("connectionDef", "Inline S3 connection",
			sf("endpoint", true, "S3 endpoint"),
			obj("authDef", "Authorization parameters",
				dflt(sf("type", true, "Authorization type"), "accessKey"),
				obj("accessKeyAuth", "Access key credentials",
					sf("accessKey", true, "Access key"),
					sf("secretKey", true, "Secret key"),
				),
			),
		),
		sf("bucket", true, "S3 bucket name"),
		sf("region", true, "S3 region"),
		obj("s3File", "File to upload",
			sf("filePath", true, "File name and extension"),
			sf("content", true, "Variable containing the file content"),
		),
	)
}

func restCallConfig() *Node {
	return obj("restCallConfig", "REST call configuration",
		arr("resultHandlers", false, "Conditions for a successful call",
			obj("predicate", "Success predicate",
				cond(nf("respCode", true, "Response code"),
					Alternative{Fields: []string{"respCodes", "respCodeInterval"}}),
				cond(arr("respCodes", true, "List of response codes"),
					Alternative{Fields: []string{"respCode", "respCodeInterval"}}),
				cond(obj("respCodeInterval", "Response code interval",
					nf("from", false, "Start of the interval"),
					nf("to", false, "End of the interval"),
				), Alternative{Fields: []string{"respCode", "respCodes"}}),
				arr("respValueAnyOf", false, "Variable value conditions",
					sf("jsonPath", true, "Path to the variable"),
					arr("values", true, "Accepted values for the variable"),
					jf("and", false, "Additional AND condition"),
				),
			),
		),
		cond(sf("restCallTemplateRef", true, "Reference to a REST call template"),
			Alternative{Fields: []string{"restCallTemplateDef"}}),
		cond(obj("restCallTemplateDef", "Inline REST call template",
			cond(sf("method", true, "HTTP method"), Alternative{Fields: []string{"curl"}}),
			cond(sf("url", true, "URL for the REST call"), Alternative{Fields: []string{"curl"}}),
			sf("bodyTemplate", false, "Request body template"),
			cond(jf("headers", true, "Request headers"), Alternative{Fields: []string{"curl"}}),
			cond(sf("curl", true, "Escaped curl request"),
				Alternative{Fields: []string{"method", "url", "headers"}}),
			restAuthDef(),
		), Alternative{Fields: []string{"restCallTemplateRef"}}),
	)
}

func restAuthDef() *Node {
	n := obj("authDef", "Authorization parameters",
		enum(sf("type", true, "Authorization type"), "basic", "oauth2"),
		cond(obj("basic", "Basic authorization",
			sf("login", true, "Login"),
			sf("password", true, "Password"),
		), Equals{Field: "type", Value: "basic"}),
		cond(obj("oauth2", "OAuth2 authorization",
			sf("issuerLocation", true, "URL for OAuth2 validation"),
			sf("clientId", true, "Client ID"),
			sf("clientSecret", true, "Client secret"),
			dflt(sf("grantType", true, "Grant type"), "client_credentials"),
		), Equals{Field: "type", Value: "oauth2"}),
	)
	n.VariantKey = "type"
	return n
}

func xsltTransformConfig() *Node {
	return obj("xsltTransformConfig", "XSLT transformation configuration",
		cond(sf("xsltTemplateRef", true, "Reference to an XSLT template"),
			Alternative{Fields: []string{"xsltTemplate"}}),
		cond(sf("xsltTransformTargetRef", true, "Reference to the document to transform"),
			Alternative{Fields: []string{"xsltTransformTarget"}}),
		cond(lf("xsltTemplate", true, "Inline XSLT template"),
			Alternative{Fields: []string{"xsltTemplateRef"}}),
		cond(lf("xsltTransformTarget", true, "Document to transform"),
			Alternative{Fields: []string{"xsltTransformTargetRef"}}),
	)
}

func databaseCallConfig() *Node {
	dbDef := obj("databaseCallDef", "Inline database call",
		enum(sf("type", true, "Type of database operation"), "function", "select", "procedure"),
		cond(lf("sql", true, "SQL select query"), Equals{Field: "type", Value: "select"}),
		cond(sf("schema", true, "Database schema"), Equals{Field: "type", Value: "function"}),
		sf("catalog", false, "Database catalog"),
		cond(sf("functionName", true, "Name of the function"), Equals{Field: "type", Value: "function"}),
		lf("inParameters", false, "Input parameters for function or procedure"),
		lf("outParameters", false, "Output parameters for function"),
	)
	dbDef.VariantKey = "type"
	return obj("databaseCallConfig", "Database call configuration",
		cond(sf("databaseCallRef", true, "Reference to a database call template"),
			Alternative{Fields: []string{"databaseCallDef"}}),
		cond(dbDef, Alternative{Fields: []string{"databaseCallRef"}}),
		cond(sf("dataSourceId", true, "ID of the data source template"),
			Alternative{Fields: []string{"dataSourceDef"}}),
		cond(obj("dataSourceDef", "Inline data source",
			sf("url", true, "Database connection URL"),
			sf("className", true, "Database driver class name"),
			sf("userName", true, "Database username"),
			sf("userPass", true, "Database password"),
		), Alternative{Fields: []string{"dataSourceId"}}),
	)
}

func sendToRabbitmqConfig() *Node {
	return refOrDef("sendToRabbitmqConfig", "RabbitMQ message configuration",
		"Reference to a RabbitMQ connection template",
		obj("connectionDef", "Inline RabbitMQ connection",
			sf("userName", true, "Username"),
			sf("userPass", true, "Password"),
			arr("addresses", true, "Connection addresses and ports"),
			sf("virtualHost", true, "Virtual host"),
		),
		sf("exchange", true, "Exchange name"),
		sf("routingKey", true, "Routing key"),
		sf("message", true, "Message body"),
		jf("messageProperties", true, "Message properties, e.g. contentType, priority"),
	)
}

func awaitForMessageConfig() *Node {
	return obj("awaitForMessageConfig", "Expected message configuration",
		sf("MessageName", true, "Name of the expected message from the external system"),
	)
}

func sendToSapConfig() *Node {
	return refOrDef("sendToSapConfig", "SAP IDoc configuration",
		"Reference to a SAP connection template",
		obj("connectionDef", "Inline SAP connection", sapProps()),
		obj("idoc", "IDoc to send",
			lf("xml", true, "XML document body"),
		),
	)
}

func transformConfig(name string) *Node {
	n := obj(name, "Transformation parameters",
		enum(sf("type", true, "Type of transformation"), "xml_to_json", "json_to_xml"),
		jf("target", true, "Target of transformation, e.g. variable with the document"),
	)
	n.VariantKey = "type"
	return n
}

// refOrDef builds the recurring connectionRef-or-connectionDef composite:
// exactly one of the template reference and the inline definition must be
// supplied, followed by the remaining required fields.
func refOrDef(name, desc, refDesc string, def *Node, rest ...*Node) *Node {
	children := []*Node{
		cond(sf("connectionRef", true, refDesc), Alternative{Fields: []string{def.Name}}),
		cond(def, Alternative{Fields: []string{"connectionRef"}}),
	}
	children = append(children, rest...)
	n := obj(name, desc, children...)
	return n
}

// Field constructors. Single letters follow the value type: s(tring),
// l(ong string), n(umber), f(loat), d(ate), j(son).

func sf(name string, required bool, desc string) *Node {
	return &Node{Name: name, Type: TypeString255, Required: required, Description: desc}
}

func s4f(name string, required bool, desc string) *Node {
	return &Node{Name: name, Type: TypeString400, Required: required, Description: desc}
}

func lf(name string, required bool, desc string) *Node {
	return &Node{Name: name, Type: TypeString, Required: required, Description: desc}
}

func nf(name string, required bool, desc string) *Node {
	return &Node{Name: name, Type: TypeInt, Required: required, Description: desc}
}

func ff(name string, required bool, desc string) *Node {
	return &Node{Name: name, Type: TypeFloat, Required: required, Description: desc}
}

func df(name string, required bool, desc string) *Node {
	return &Node{Name: name, Type: TypeDate, Required: required, Description: desc}
}

func jf(name string, required bool, desc string) *Node {
	return &Node{Name: name, Type: TypeJSON, Required: required, Description: desc}
}

// obj builds a required composite; optionality is rare enough that callers
// construct optional composites as literals.
func obj(name, desc string, children ...*Node) *Node {
	return &Node{Name: name, Type: TypeComposite, Required: true, Description: desc, Children: children}
}

func arr(name string, required bool, desc string, element ...*Node) *Node {
	return &Node{Name: name, Type: TypeArray, Required: required, Description: desc, Children: element}
}

func cond(n *Node, c Condition) *Node {
	n.Cond = c
	return n
}

func enum(n *Node, values ...string) *Node {
	n.Enum = values
	return n
}

func dflt(n *Node, v string) *Node {
	n.Default = v
	return n
}
