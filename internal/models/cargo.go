package models

// CargoClass is one entry of the insurable cargo whitelist.
type CargoClass struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CargoClasses is the fixed whitelist of insurable cargo categories.
// Order is stable: menu selection by ordinal depends on it.
var CargoClasses = []CargoClass{
	{ID: "CARGO001", Name: "Автотранспортные средства и принадлежности к ним (в т.ч. пневматические шины)"},
	{ID: "CARGO002", Name: "Целлюлозно-бумажная продукция (бумага, картон, изделия из бумаги) и вторичное сырьё (макулатура)"},
	{ID: "CARGO003", Name: "Бытовая электротехника, электронная аппаратура и офисная (организационная) техника"},
	{ID: "CARGO004", Name: "Лекарственные средства (медикаменты), не требующие соблюдения температурного режима при перевозке и хранении"},
	{ID: "CARGO005", Name: "Автокомпоненты: запасные части, узлы, агрегаты и аксессуары к автотранспортным средствам"},
	{ID: "CARGO006", Name: "Фармацевтическая продукция (прочая/субстанции и т.п.), если принимается по условиям страхования"},
	{ID: "CARGO007", Name: "Строительные материалы, отделочные материалы и строительно-монтажный инструмент"},
	{ID: "CARGO008", Name: "Парфюмерно-косметическая продукция и товары бытовой химии"},
	{ID: "CARGO009", Name: "Мебель и предметы интерьера"},
	{ID: "CARGO010", Name: "Товары народного потребления (прочие), не поименованные отдельно в перечне допустимых грузов"},
	{ID: "CARGO011", Name: "Продовольственные товары (пищевые продукты)"},
	{ID: "CARGO012", Name: "Детские товары (в т.ч. игрушки) и товары для спорта и отдыха (спортивный инвентарь)"},
	{ID: "CARGO013", Name: "Оборудование промышленное/технологическое (в т.ч. станки, агрегаты, производственные линии)"},
	{ID: "CARGO014", Name: "Изделия медицинского назначения: медицинская техника, инструменты и медицинские изделия"},
	{ID: "CARGO015", Name: "Металлопрокат и изделия из металла (металлоизделия)"},
	{ID: "CARGO016", Name: "Химическая продукция неопасная (не классифицируемая как опасный груз/ADR)"},
}

var cargoNameByID = func() map[string]string {
	m := make(map[string]string, len(CargoClasses))
	for _, c := range CargoClasses {
		m[c.ID] = c.Name
	}
	return m
}()

// CargoClassName returns the display name for a whitelist id.
func CargoClassName(id string) (string, bool) {
	name, ok := cargoNameByID[id]
	return name, ok
}

// IsCargoClass reports whether id belongs to the whitelist.
func IsCargoClass(id string) bool {
	_, ok := cargoNameByID[id]
	return ok
}

// CargoClassByIndex resolves a 1-based menu ordinal into a whitelist entry.
func CargoClassByIndex(n int) (CargoClass, bool) {
	if n < 1 || n > len(CargoClasses) {
		return CargoClass{}, false
	}
	return CargoClasses[n-1], true
}

// Condition codes for the insured cargo.
const (
	ConditionNew  = "NEW"
	ConditionUsed = "USED"
)

// FranchiseOptions are the only deductible amounts offered online.
var FranchiseOptions = []int64{20000, 50000}

// Route zones offered online.
const (
	RouteZoneRF    = "РФ"
	RouteZoneCIS   = "СНГ-РФ"
	RouteZoneWorld = "ВЕСЬ МИР-РФ"
)

// RouteZones lists the three canonical zones.
var RouteZones = []string{RouteZoneRF, RouteZoneCIS, RouteZoneWorld}
