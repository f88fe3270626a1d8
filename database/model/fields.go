package model

type FieldType string

const (
	TypeInteger   FieldType = "integer"
	TypeText      FieldType = "text"
	TypeBoolean   FieldType = "boolean"
	TypeTimestamp FieldType = "timestamp"
)

// DefaultRule says where a column's value comes from when the input omits it.
type DefaultRule string

const (
	DefaultNone          DefaultRule = ""
	DefaultAutoIncrement DefaultRule = "auto_increment"
	DefaultTrue          DefaultRule = "true"
	DefaultEmptyText     DefaultRule = "empty_text"
	DefaultNow           DefaultRule = "now"
)

// Field describes one persisted column.
type Field struct {
	Column     string
	Type       FieldType
	Nullable   bool
	MaxLength  int // 0 means unbounded
	PrimaryKey bool
	Unique     bool
	Indexed    bool
	Immutable  bool
	Default    DefaultRule
}

// Descriptor is the column list of one table.
type Descriptor struct {
	Table  string
	Fields []Field
}

// Describable is implemented by every record the persistence adapter manages.
type Describable interface {
	Descriptor() Descriptor
}

// Field looks up a column by name.
func (d Descriptor) Field(column string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Column == column {
			return f, true
		}
	}
	return Field{}, false
}

// Immutable returns the columns that must never appear in an update.
func (d Descriptor) Immutable() []string {
	var cols []string
	for _, f := range d.Fields {
		if f.Immutable {
			cols = append(cols, f.Column)
		}
	}
	return cols
}

var driverDescriptor = Descriptor{
	Table: "drivers",
	Fields: []Field{
		{Column: "id", Type: TypeInteger, PrimaryKey: true, Immutable: true, Default: DefaultAutoIncrement},
		{Column: "name", Type: TypeText, MaxLength: NameMaxLength},
		{Column: "phone", Type: TypeText, MaxLength: PhoneMaxLength},
		{Column: "is_active", Type: TypeBoolean, Default: DefaultTrue},
		{Column: "created_at", Type: TypeTimestamp, Immutable: true, Default: DefaultNow},
	},
}

var userDescriptor = Descriptor{
	Table: "users",
	Fields: []Field{
		{Column: "id", Type: TypeInteger, PrimaryKey: true, Immutable: true, Default: DefaultAutoIncrement},
		{Column: "telegram_id", Type: TypeInteger, Unique: true, Indexed: true},
		{Column: "name", Type: TypeText, MaxLength: NameMaxLength, Default: DefaultEmptyText},
		{Column: "role", Type: TypeText, MaxLength: RoleMaxLength},
		{Column: "phone", Type: TypeText, MaxLength: PhoneMaxLength},
		{Column: "created_at", Type: TypeTimestamp, Immutable: true, Default: DefaultNow},
	},
}

func (Driver) Descriptor() Descriptor { return driverDescriptor }

func (User) Descriptor() Descriptor { return userDescriptor }
