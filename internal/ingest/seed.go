package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/seasonscope/internal/fetcher"
	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/store"
)

// Seed loads the embedded food catalog and the shared citation records so
// the dataset connectors can run against an empty database. It performs no
// network I/O.
type Seed struct{}

func (c *Seed) Name() string  { return "seed" }
func (c *Seed) Table() string { return "foods" }
func (c *Seed) Order() int    { return 0 }

func (c *Seed) Sync(ctx context.Context, st store.Store, _ fetcher.Fetcher, _ SyncOptions) (*SyncResult, error) {
	log := zap.L().With(zap.String("connector", "seed"))

	sources := seedSources()
	ns, err := st.UpsertSources(ctx, sources)
	if err != nil {
		return nil, err
	}

	foods := seedFoods()
	nf, err := st.UpsertFoods(ctx, foods)
	if err != nil {
		return nil, err
	}

	log.Info("seeded catalog", zap.Int64("foods", nf), zap.Int64("sources", ns))

	return &SyncResult{
		RowsSynced: nf + ns,
		Metadata:   map[string]any{"foods": nf, "sources": ns},
	}, nil
}

// sourcesByID returns the seed Source records for the given ids. Every
// connector upserts its own Source this way at the start of Sync, so a
// restricted run on a fresh store still satisfies the citation foreign keys.
func sourcesByID(ids ...string) []model.Source {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Source
	for _, src := range seedSources() {
		if want[src.ID] {
			out = append(out, src)
		}
	}
	return out
}

func upsertConnectorSources(ctx context.Context, st store.Store, ids ...string) error {
	_, err := st.UpsertSources(ctx, sourcesByID(ids...))
	return err
}

// seedSources returns the citation records every connector's facts reference.
// Connectors re-upsert their own Source with a fresh accessed date; seeding
// them all up front additionally covers sources no connector owns.
func seedSources() []model.Source {
	today := time.Now().UTC().Format("2006-01-02")
	return []model.Source{
		{
			ID:            "poore_nemecek_2018",
			Title:         "Reducing food's environmental impacts through producers and consumers",
			Publisher:     "Science (AAAS)",
			URL:           "https://doi.org/10.1126/science.aaq0216",
			PublishedDate: "2018-06-01",
			AccessedDate:  today,
			License:       "Academic publication",
			Notes:         "Meta-analysis of ~38,700 farms, 1,600 processors. Data as distributed by Our World in Data.",
		},
		{
			ID:           "owid_food_impacts",
			Title:        "Environmental Impacts of Food Production",
			Publisher:    "Our World in Data",
			URL:          "https://ourworldindata.org/environmental-impacts-of-food",
			AccessedDate: today,
			License:      "CC BY 4.0",
			Notes:        "Tabulated Poore & Nemecek (2018) meta-analysis data.",
		},
		{
			ID:            "agribalyse_3",
			Title:         "AGRIBALYSE 3.1",
			Publisher:     "ADEME (France)",
			URL:           "https://agribalyse.ademe.fr/",
			PublishedDate: "2023-01-01",
			AccessedDate:  today,
			License:       "Etalab 2.0 Open License",
			Notes:         "French/EU life cycle assessment database. Climate change indicator per kg at consumer.",
		},
		{
			ID:           "fao_crop_calendar",
			Title:        "FAO Crop Calendar",
			Publisher:    "Food and Agriculture Organization of the United Nations",
			URL:          "https://www.fao.org/agriculture/seed/cropcalendar/welcome.do",
			AccessedDate: today,
			License:      "Open data",
			Notes:        "Global crop planting and harvest calendars by country.",
		},
		{
			ID:            "koppen_beck_2018",
			Title:         "Present and future Köppen-Geiger climate classification maps at 1-km resolution",
			Publisher:     "Scientific Data (Nature)",
			URL:           "https://www.gloh2o.org/koppen/",
			PublishedDate: "2018-10-30",
			AccessedDate:  today,
			License:       "CC BY 4.0",
			Notes:         "Beck et al. (2018). Used for climate-zone seasonality fallback rows.",
		},
		{
			ID:            "wri_aqueduct",
			Title:         "Aqueduct Water Risk Atlas",
			Publisher:     "World Resources Institute",
			URL:           "https://www.wri.org/aqueduct",
			PublishedDate: "2023-01-01",
			AccessedDate:  today,
			License:       "CC BY 4.0",
			Notes:         "Baseline water stress = total withdrawals / available blue water.",
		},
		{
			ID:           "un_comtrade",
			Title:        "UN Comtrade Database",
			Publisher:    "United Nations Statistics Division",
			URL:          "https://comtrade.un.org/",
			AccessedDate: today,
			License:      "Open data (registration required for API)",
			Notes:        "Trade flows used to derive origin probability hints, supplemented with USDA FAS statistics.",
		},
	}
}

// seedFoods returns the embedded catalog. A representative cut of the full
// dataset covering every category; the bulk catalog ships separately.
func seedFoods() []model.Food {
	return []model.Food{
		// Produce
		{ID: "apple", CanonicalName: "Apple", Category: model.CategoryProduce, Synonyms: []string{"apples", "gala apple", "fuji apple", "granny smith"}, TypicalServingG: 182, EdiblePortionPct: 0.91},
		{ID: "avocado", CanonicalName: "Avocado", Category: model.CategoryProduce, Synonyms: []string{"avocados", "hass avocado", "aguacate"}, TypicalServingG: 150, EdiblePortionPct: 0.74},
		{ID: "banana", CanonicalName: "Banana", Category: model.CategoryProduce, Synonyms: []string{"bananas"}, TypicalServingG: 118, EdiblePortionPct: 0.64},
		{ID: "bell_pepper", CanonicalName: "Bell Pepper", Category: model.CategoryProduce, Synonyms: []string{"bell peppers", "sweet pepper", "capsicum"}, TypicalServingG: 119, EdiblePortionPct: 0.82},
		{ID: "broccoli", CanonicalName: "Broccoli", Category: model.CategoryProduce, Synonyms: []string{"broccoli florets", "broccolini"}, TypicalServingG: 91, EdiblePortionPct: 0.78},
		{ID: "cabbage", CanonicalName: "Cabbage", Category: model.CategoryProduce, Synonyms: []string{"green cabbage", "red cabbage", "cabbages"}, TypicalServingG: 89, EdiblePortionPct: 0.80},
		{ID: "carrot", CanonicalName: "Carrot", Category: model.CategoryProduce, Synonyms: []string{"carrots"}, TypicalServingG: 61, EdiblePortionPct: 0.89},
		{ID: "cauliflower", CanonicalName: "Cauliflower", Category: model.CategoryProduce, Synonyms: []string{"cauliflower florets"}, TypicalServingG: 100, EdiblePortionPct: 0.61},
		{ID: "cucumber", CanonicalName: "Cucumber", Category: model.CategoryProduce, Synonyms: []string{"cucumbers", "english cucumber"}, TypicalServingG: 301, EdiblePortionPct: 0.97},
		{ID: "eggplant", CanonicalName: "Eggplant", Category: model.CategoryProduce, Synonyms: []string{"aubergine", "aubergines", "eggplants"}, TypicalServingG: 82, EdiblePortionPct: 0.81},
		{ID: "grape", CanonicalName: "Grape", Category: model.CategoryProduce, Synonyms: []string{"grapes", "table grapes", "seedless grapes"}, TypicalServingG: 151, EdiblePortionPct: 0.96},
		{ID: "green_bean", CanonicalName: "Green Bean", Category: model.CategoryProduce, Synonyms: []string{"green beans", "string beans", "snap beans", "haricots verts"}, TypicalServingG: 110, EdiblePortionPct: 0.92},
		{ID: "kale", CanonicalName: "Kale", Category: model.CategoryProduce, Synonyms: []string{"curly kale", "lacinato kale", "tuscan kale"}, TypicalServingG: 67, EdiblePortionPct: 0.67},
		{ID: "lettuce", CanonicalName: "Lettuce", Category: model.CategoryProduce, Synonyms: []string{"iceberg lettuce", "head lettuce"}, TypicalServingG: 72, EdiblePortionPct: 0.95},
		{ID: "mango", CanonicalName: "Mango", Category: model.CategoryProduce, Synonyms: []string{"mangoes", "mangos"}, TypicalServingG: 165, EdiblePortionPct: 0.69},
		{ID: "onion", CanonicalName: "Onion", Category: model.CategoryProduce, Synonyms: []string{"onions", "yellow onion", "white onion", "red onion"}, TypicalServingG: 110, EdiblePortionPct: 0.90},
		{ID: "orange", CanonicalName: "Orange", Category: model.CategoryProduce, Synonyms: []string{"oranges", "navel orange", "valencia orange"}, TypicalServingG: 131, EdiblePortionPct: 0.73},
		{ID: "potato", CanonicalName: "Potato", Category: model.CategoryProduce, Synonyms: []string{"potatoes", "russet potato", "yukon gold", "red potato"}, TypicalServingG: 150, EdiblePortionPct: 0.81},
		{ID: "spinach", CanonicalName: "Spinach", Category: model.CategoryProduce, Synonyms: []string{"baby spinach"}, TypicalServingG: 30, EdiblePortionPct: 0.72},
		{ID: "strawberry", CanonicalName: "Strawberry", Category: model.CategoryProduce, Synonyms: []string{"strawberries"}, TypicalServingG: 152, EdiblePortionPct: 0.94},
		{ID: "tomato", CanonicalName: "Tomato", Category: model.CategoryProduce, Synonyms: []string{"tomatoes", "roma tomato", "cherry tomato", "beefsteak tomato"}, TypicalServingG: 123, EdiblePortionPct: 0.91},
		{ID: "watermelon", CanonicalName: "Watermelon", Category: model.CategoryProduce, Synonyms: []string{"watermelons"}, TypicalServingG: 280, EdiblePortionPct: 0.48},
		{ID: "zucchini", CanonicalName: "Zucchini", Category: model.CategoryProduce, Synonyms: []string{"zucchinis", "courgette", "courgettes"}, TypicalServingG: 113, EdiblePortionPct: 0.95},
		{ID: "corn_sweet", CanonicalName: "Sweet Corn", Category: model.CategoryProduce, Synonyms: []string{"corn", "corn on the cob", "maize"}, TypicalServingG: 90, EdiblePortionPct: 0.55},

		// Meat
		{ID: "beef_general", CanonicalName: "Beef (General)", Category: model.CategoryMeat, Synonyms: []string{"beef", "cow meat", "cattle"}, TypicalServingG: 113, EdiblePortionPct: 0.95},
		{ID: "chicken_breast", CanonicalName: "Chicken Breast", Category: model.CategoryMeat, Synonyms: []string{"chicken breasts", "boneless chicken"}, TypicalServingG: 120, EdiblePortionPct: 0.95},
		{ID: "lamb", CanonicalName: "Lamb", Category: model.CategoryMeat, Synonyms: []string{"lamb meat", "mutton"}, TypicalServingG: 113, EdiblePortionPct: 0.90},
		{ID: "pork", CanonicalName: "Pork", Category: model.CategoryMeat, Synonyms: []string{"pork meat", "pig meat"}, TypicalServingG: 113, EdiblePortionPct: 0.90},

		// Dairy
		{ID: "butter", CanonicalName: "Butter", Category: model.CategoryDairy, Synonyms: []string{"unsalted butter", "salted butter"}, TypicalServingG: 14, EdiblePortionPct: 1.0},
		{ID: "cheddar_cheese", CanonicalName: "Cheddar Cheese", Category: model.CategoryDairy, Synonyms: []string{"cheddar", "sharp cheddar", "mild cheddar"}, TypicalServingG: 28, EdiblePortionPct: 1.0},
		{ID: "egg_chicken", CanonicalName: "Chicken Egg", Category: model.CategoryDairy, Synonyms: []string{"egg", "eggs", "hen egg", "chicken eggs"}, TypicalServingG: 50, EdiblePortionPct: 0.88},
		{ID: "milk_whole", CanonicalName: "Whole Milk", Category: model.CategoryDairy, Synonyms: []string{"full cream milk", "full fat milk", "whole cow milk"}, TypicalServingG: 244, EdiblePortionPct: 1.0},
		{ID: "yogurt", CanonicalName: "Yogurt", Category: model.CategoryDairy, Synonyms: []string{"yoghurt", "plain yogurt"}, TypicalServingG: 245, EdiblePortionPct: 1.0},

		// Grains
		{ID: "oats", CanonicalName: "Oats", Category: model.CategoryGrains, Synonyms: []string{"oat", "porridge oats", "oatmeal"}, TypicalServingG: 40, EdiblePortionPct: 1.0},
		{ID: "pasta", CanonicalName: "Pasta", Category: model.CategoryGrains, Synonyms: []string{"spaghetti", "penne", "fusilli", "macaroni", "noodles"}, TypicalServingG: 56, EdiblePortionPct: 1.0},
		{ID: "wheat_flour", CanonicalName: "Wheat Flour", Category: model.CategoryGrains, Synonyms: []string{"all purpose flour", "plain flour", "white flour"}, TypicalServingG: 125, EdiblePortionPct: 1.0},
		{ID: "white_rice", CanonicalName: "White Rice", Category: model.CategoryGrains, Synonyms: []string{"rice", "long grain rice", "short grain rice"}, TypicalServingG: 158, EdiblePortionPct: 1.0},

		// Legumes
		{ID: "chickpeas", CanonicalName: "Chickpeas", Category: model.CategoryLegumes, Synonyms: []string{"garbanzo beans", "garbanzo", "ceci beans", "chana"}, TypicalServingG: 164, EdiblePortionPct: 1.0},
		{ID: "lentils_green", CanonicalName: "Green Lentils", Category: model.CategoryLegumes, Synonyms: []string{"lentils", "french lentils", "puy lentils"}, TypicalServingG: 198, EdiblePortionPct: 1.0},
		{ID: "soybeans", CanonicalName: "Soybeans", Category: model.CategoryLegumes, Synonyms: []string{"soya beans", "soy", "soya"}, TypicalServingG: 172, EdiblePortionPct: 1.0},
		{ID: "tofu", CanonicalName: "Tofu", Category: model.CategoryLegumes, Synonyms: []string{"bean curd", "soybean curd", "firm tofu", "silken tofu"}, TypicalServingG: 126, EdiblePortionPct: 1.0},
	}
}
